package sim

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"cryotank-sim/internal/telemetry"
)

// DefaultGreptimePort is the gRPC port used when the endpoint has none.
const DefaultGreptimePort = 4001

type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes tank telemetry, channel samples, vessel state and
// cooling events to GreptimeDB via the ingester client.
type GreptimeDBWriter struct {
	client       greptimeClient
	tankTable    string
	channelTable string
	stateTable   string
	eventTable   string
	timeout      time.Duration
	log          *slog.Logger
}

// NewGreptimeDBWriter connects to endpoint (host or host:port) and database.
// Tables are created by GreptimeDB on first write.
func NewGreptimeDBWriter(endpoint, database string) (*GreptimeDBWriter, error) {
	h, port, err := splitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	cfg := greptime.NewConfig(h).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &GreptimeDBWriter{
		client:       client,
		tankTable:    telemetry.TankTableName,
		channelTable: telemetry.ChannelTableName,
		stateTable:   telemetry.VesselStateTableName,
		eventTable:   telemetry.CoolingEventTableName,
		timeout:      5 * time.Second,
		log:          slog.Default().With("writer", "greptimedb"),
	}, nil
}

func splitEndpoint(endpoint string) (string, int, error) {
	h, p, err := net.SplitHostPort(endpoint)
	if err != nil {
		return endpoint, DefaultGreptimePort, nil
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return "", 0, fmt.Errorf("invalid greptimedb port %q: %w", p, err)
	}
	return h, port, nil
}

func (w *GreptimeDBWriter) logger() *slog.Logger {
	if w.log == nil {
		return slog.Default()
	}
	return w.log
}

func (w *GreptimeDBWriter) write(tables ...*table.Table) error {
	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	if _, err := w.client.Write(ctx, tables...); err != nil {
		w.logger().Error("write failed", "err", err)
		return err
	}
	return nil
}

// Write inserts a single tank row.
func (w *GreptimeDBWriter) Write(row telemetry.TankRow) error {
	return w.WriteBatch([]telemetry.TankRow{row})
}

// WriteBatch inserts tank rows and their channel samples.
func (w *GreptimeDBWriter) WriteBatch(rows []telemetry.TankRow) error {
	if len(rows) == 0 {
		return nil
	}
	tanks, err := w.tankTableFor(rows)
	if err != nil {
		return err
	}
	channels, err := w.channelTableFor(rows)
	if err != nil {
		return err
	}
	if err := w.write(tanks, channels); err != nil {
		return err
	}
	w.logger().Debug("wrote rows", "rows", len(rows))
	return nil
}

func (w *GreptimeDBWriter) tankTableFor(rows []telemetry.TankRow) (*table.Table, error) {
	tbl, err := table.New(w.tankTable)
	if err != nil {
		return nil, err
	}
	tbl.AddTagColumn("run_id", types.STRING)
	tbl.AddTagColumn("vessel", types.STRING)
	tbl.AddTagColumn("tank", types.STRING)
	tbl.AddFieldColumn("phase", types.STRING)
	tbl.AddFieldColumn("state", types.STRING)
	tbl.AddFieldColumn("boiloff_status", types.STRING)
	tbl.AddFieldColumn("cooling_status", types.STRING)
	tbl.AddFieldColumn("cooling_enabled", types.BOOLEAN)
	tbl.AddFieldColumn("cooling_cost", types.FLOAT64)
	tbl.AddFieldColumn("loss_rate", types.FLOAT64)
	tbl.AddFieldColumn("fuel_amount", types.FLOAT64)
	tbl.AddFieldColumn("fuel_max", types.FLOAT64)
	tbl.AddFieldColumn("boiled", types.FLOAT64)
	tbl.AddFieldColumn("power_amount", types.FLOAT64)
	tbl.AddFieldColumn("power_max", types.FLOAT64)
	tbl.AddFieldColumn("mission_time", types.FLOAT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	for _, r := range rows {
		if err := tbl.AddRow(
			r.RunID, r.Vessel, r.Tank,
			r.Phase, r.State, r.BoiloffStatus, r.CoolingStatus, r.CoolingEnabled,
			r.CoolingCost, r.LossRate, r.FuelAmount, r.FuelMax, r.Boiled,
			r.PowerAmount, r.PowerMax, r.MissionTime,
			r.Timestamp,
		); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

func (w *GreptimeDBWriter) channelTableFor(rows []telemetry.TankRow) (*table.Table, error) {
	tbl, err := table.New(w.channelTable)
	if err != nil {
		return nil, err
	}
	tbl.AddTagColumn("run_id", types.STRING)
	tbl.AddTagColumn("vessel", types.STRING)
	tbl.AddTagColumn("tank", types.STRING)
	tbl.AddTagColumn("fuel", types.STRING)
	tbl.AddFieldColumn("active", types.BOOLEAN)
	tbl.AddFieldColumn("amount", types.FLOAT64)
	tbl.AddFieldColumn("max", types.FLOAT64)
	tbl.AddFieldColumn("rate_per_s", types.FLOAT64)
	tbl.AddFieldColumn("boiled", types.FLOAT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	for _, r := range rows {
		for _, ch := range r.Channels {
			if err := tbl.AddRow(r.RunID, r.Vessel, r.Tank, ch.Fuel,
				ch.Active, ch.Amount, ch.Max, ch.RatePerSecond, ch.Boiled, r.Timestamp); err != nil {
				return nil, err
			}
		}
	}
	return tbl, nil
}

// WriteState inserts a vessel power row.
func (w *GreptimeDBWriter) WriteState(row telemetry.VesselStateRow) error {
	tbl, err := table.New(w.stateTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("run_id", types.STRING)
	tbl.AddTagColumn("vessel", types.STRING)
	tbl.AddFieldColumn("phase", types.STRING)
	tbl.AddFieldColumn("power_amount", types.FLOAT64)
	tbl.AddFieldColumn("power_max", types.FLOAT64)
	tbl.AddFieldColumn("generation_rate", types.FLOAT64)
	tbl.AddFieldColumn("cooling_draw", types.FLOAT64)
	tbl.AddFieldColumn("boiling_tanks", types.INT64)
	tbl.AddFieldColumn("mission_time", types.FLOAT64)
	tbl.AddFieldColumn("time_warp", types.FLOAT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)
	if err := tbl.AddRow(row.RunID, row.Vessel, row.Phase, row.PowerAmount, row.PowerMax,
		row.GenerationRate, row.CoolingDraw, int64(row.BoilingTanks), row.MissionTime, row.TimeWarp, row.Timestamp); err != nil {
		return err
	}
	return w.write(tbl)
}

// WriteEvent inserts a single cooling event.
func (w *GreptimeDBWriter) WriteEvent(e telemetry.CoolingEventRow) error {
	return w.WriteEvents([]telemetry.CoolingEventRow{e})
}

// WriteEvents inserts cooling events.
func (w *GreptimeDBWriter) WriteEvents(rows []telemetry.CoolingEventRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.eventTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("run_id", types.STRING)
	tbl.AddTagColumn("vessel", types.STRING)
	tbl.AddTagColumn("tank", types.STRING)
	tbl.AddFieldColumn("event_type", types.STRING)
	tbl.AddFieldColumn("detail", types.STRING)
	tbl.AddFieldColumn("value", types.FLOAT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)
	for _, e := range rows {
		if err := tbl.AddRow(e.RunID, e.Vessel, e.Tank, e.EventType, e.Detail, e.Value, e.Timestamp); err != nil {
			return err
		}
	}
	return w.write(tbl)
}

package sim

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"

	"cryotank-sim/internal/telemetry"
)

// ReplayLog replays tank rows from r to writer. Consecutive rows sharing a
// timestamp belong to one tick and are delivered together, as a batch when
// the writer supports it. A speed > 0 paces ticks by their recorded spacing
// divided by speed; speed <= 0 replays without delay.
func ReplayLog(r io.Reader, writer TelemetryWriter, speed float64) error {
	dec := json.NewDecoder(r)
	var (
		tick []telemetry.TankRow
		prev time.Time
	)
	flush := func() error {
		if len(tick) == 0 {
			return nil
		}
		ts := tick[0].Timestamp
		if !prev.IsZero() && speed > 0 {
			if wait := time.Duration(float64(ts.Sub(prev)) / speed); wait > 0 {
				time.Sleep(wait)
			}
		}
		prev = ts
		err := deliver(writer, tick)
		tick = tick[:0]
		return err
	}

	for {
		var row telemetry.TankRow
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				return flush()
			}
			return err
		}
		if len(tick) > 0 && !row.Timestamp.Equal(tick[0].Timestamp) {
			if err := flush(); err != nil {
				return err
			}
		}
		tick = append(tick, row)
	}
}

func deliver(writer TelemetryWriter, rows []telemetry.TankRow) error {
	if bw, ok := writer.(batchWriter); ok {
		return bw.WriteBatch(rows)
	}
	for _, r := range rows {
		if err := writer.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// ReplayLogFile opens a JSONL tank log and replays it. Files ending in .zst
// are decompressed.
func ReplayLogFile(path string, writer TelemetryWriter, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var src io.Reader = f
	if IsCompressed(path) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return err
		}
		defer dec.Close()
		src = dec
	}
	return ReplayLog(src, writer, speed)
}

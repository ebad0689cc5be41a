package sim

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"cryotank-sim/internal/telemetry"
)

type collectWriter struct{ rows []telemetry.TankRow }

func (c *collectWriter) Write(r telemetry.TankRow) error {
	c.rows = append(c.rows, r)
	return nil
}

func TestReplayLog(t *testing.T) {
	rows := []telemetry.TankRow{
		{Vessel: "v1", Tank: "t1", Timestamp: time.Unix(0, 0)},
		{Vessel: "v1", Tank: "t2", Timestamp: time.Unix(1, 0)},
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	cw := &collectWriter{}
	if err := ReplayLog(&buf, cw, 0); err != nil {
		t.Fatalf("ReplayLog: %v", err)
	}
	if len(cw.rows) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(cw.rows))
	}
	for i, r := range rows {
		if cw.rows[i].Tank != r.Tank {
			t.Fatalf("row %d mismatch: %+v vs %+v", i, cw.rows[i], r)
		}
	}
}

type batchCollector struct{ batches [][]telemetry.TankRow }

func (b *batchCollector) Write(r telemetry.TankRow) error {
	return b.WriteBatch([]telemetry.TankRow{r})
}

func (b *batchCollector) WriteBatch(rows []telemetry.TankRow) error {
	b.batches = append(b.batches, append([]telemetry.TankRow(nil), rows...))
	return nil
}

func TestReplayLogGroupsTicks(t *testing.T) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range []telemetry.TankRow{
		{Tank: "lh2", Timestamp: time.Unix(0, 0)},
		{Tank: "ln2", Timestamp: time.Unix(0, 0)},
		{Tank: "lh2", Timestamp: time.Unix(1, 0)},
	} {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	bc := &batchCollector{}
	if err := ReplayLog(&buf, bc, 0); err != nil {
		t.Fatalf("ReplayLog: %v", err)
	}
	if len(bc.batches) != 2 || len(bc.batches[0]) != 2 || len(bc.batches[1]) != 1 {
		t.Fatalf("unexpected batches %+v", bc.batches)
	}
	if bc.batches[0][1].Tank != "ln2" {
		t.Fatalf("batch order lost: %+v", bc.batches[0])
	}
}

func TestReplayLogFileCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tanks.jsonl.zst")
	fw, err := NewFileWriter(path, "", "")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := fw.Write(telemetry.TankRow{Tank: "lh2", MissionTime: float64(i), Timestamp: time.Unix(int64(i), 0)}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	cw := &collectWriter{}
	if err := ReplayLogFile(path, cw, 0); err != nil {
		t.Fatalf("ReplayLogFile: %v", err)
	}
	if len(cw.rows) != 3 || cw.rows[2].MissionTime != 2 {
		t.Fatalf("unexpected replayed rows %+v", cw.rows)
	}
}

package sim

import (
	"testing"

	"cryotank-sim/internal/telemetry"
)

type stubToggleWriter struct {
	rows   []telemetry.TankRow
	states []telemetry.VesselStateRow
	events []telemetry.CoolingEventRow
	toggle CoolingToggler
	admin  bool
}

func (s *stubToggleWriter) Write(r telemetry.TankRow) error { s.rows = append(s.rows, r); return nil }
func (s *stubToggleWriter) WriteState(r telemetry.VesselStateRow) error {
	s.states = append(s.states, r)
	return nil
}
func (s *stubToggleWriter) WriteEvent(e telemetry.CoolingEventRow) error {
	s.events = append(s.events, e)
	return nil
}
func (s *stubToggleWriter) SetCoolingToggle(fn CoolingToggler) { s.toggle = fn }
func (s *stubToggleWriter) SetAdminStatus(l bool)              { s.admin = l }

type plainWriter struct{ rows []telemetry.TankRow }

func (p *plainWriter) Write(r telemetry.TankRow) error { p.rows = append(p.rows, r); return nil }

func TestMultiWriterFanOut(t *testing.T) {
	a := &stubToggleWriter{}
	b := &plainWriter{}
	mw := NewMultiWriter(a, b)

	if err := mw.WriteBatch([]telemetry.TankRow{{Tank: "t1"}, {Tank: "t2"}}); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if len(a.rows) != 2 || len(b.rows) != 2 {
		t.Fatalf("rows not fanned out: %d %d", len(a.rows), len(b.rows))
	}
	if err := mw.WriteState(telemetry.VesselStateRow{Vessel: "v"}); err != nil {
		t.Fatalf("WriteState: %v", err)
	}
	if err := mw.WriteEvent(telemetry.CoolingEventRow{EventType: telemetry.CoolingEventEnabled}); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}
	if len(a.states) != 1 || len(a.events) != 1 {
		t.Fatalf("state/event not forwarded: %+v", a)
	}
}

func TestMultiWriterSetCoolingToggle(t *testing.T) {
	s := &stubToggleWriter{}
	mw := NewMultiWriter(s, &plainWriter{})
	mw.SetCoolingToggle(func(string) (bool, error) { return true, nil })
	if s.toggle == nil {
		t.Fatalf("cooling toggle not forwarded")
	}
}

func TestMultiWriterSetAdminStatus(t *testing.T) {
	s := &stubToggleWriter{}
	mw := NewMultiWriter(s)
	mw.SetAdminStatus(true)
	if !s.admin {
		t.Fatalf("admin status not forwarded")
	}
}

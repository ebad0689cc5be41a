package sim

import "cryotank-sim/internal/telemetry"

// maxEventHistory bounds the cooling events kept for Events.
const maxEventHistory = 500

// Events returns a copy of the recorded cooling events, oldest first.
func (s *Simulator) Events() []telemetry.CoolingEventRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]telemetry.CoolingEventRow, len(s.history))
	copy(events, s.history)
	return events
}

// EventsFor returns the recorded events for one tank. Vessel-wide events
// such as phase changes are included.
func (s *Simulator) EventsFor(tank string) []telemetry.CoolingEventRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	var events []telemetry.CoolingEventRow
	for _, e := range s.history {
		if e.Tank == tank || e.Tank == "" {
			events = append(events, e)
		}
	}
	return events
}

func (s *Simulator) recordEvents(events []telemetry.CoolingEventRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, events...)
	if n := len(s.history) - maxEventHistory; n > 0 {
		s.history = append(s.history[:0:0], s.history[n:]...)
	}
}

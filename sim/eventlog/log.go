package eventlog

import "encoding/json"

// Log is the append-only event record for one run. The orchestrator owns it
// exclusively and appends in tick order; external readers only ever observe
// a completed, immutable prefix.
type Log struct {
	events  []Event
	nextSeq int64
}

// NewLog creates an empty Log.
func NewLog() *Log {
	return &Log{events: make([]Event, 0)}
}

// Append stamps the next sequence number onto the event and stores it.
// Total order is (tick, seq); Append must be called with non-decreasing
// ticks.
func (l *Log) Append(ev Event) Event {
	ev.Seq = l.nextSeq
	l.nextSeq++
	l.events = append(l.events, ev)
	return ev
}

// Len returns the number of recorded events.
func (l *Log) Len() int {
	return len(l.events)
}

// All returns the full event history in append order.
func (l *Log) All() []Event {
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// ForTick returns the events recorded at the given tick, in append order.
func (l *Log) ForTick(tick int64) []Event {
	var out []Event
	for _, ev := range l.events {
		if ev.Tick == tick {
			out = append(out, ev)
		}
	}
	return out
}

// MarshalJSON renders the log as a JSON array with aliased details, the form
// persisted for downstream consumers. Map keys marshal in sorted order, so
// two identical runs produce byte-identical output.
func (l *Log) MarshalJSON() ([]byte, error) {
	type exported struct {
		Seq     int64          `json:"seq"`
		Tick    int64          `json:"tick"`
		Day     int64          `json:"day"`
		Type    EventType      `json:"event_type"`
		TxID    string         `json:"tx_id,omitempty"`
		Details map[string]any `json:"details,omitempty"`
	}
	out := make([]exported, len(l.events))
	for i := range l.events {
		ev := &l.events[i]
		out[i] = exported{
			Seq:     ev.Seq,
			Tick:    ev.Tick,
			Day:     ev.Day,
			Type:    ev.Type,
			TxID:    ev.TxID,
			Details: ev.DetailsWithAliases(),
		}
	}
	return json.Marshal(out)
}

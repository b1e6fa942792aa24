package flatdoc

import (
	"fmt"
	"iter"
)

// EventType identifies a structural ingestion event.
type EventType int

const (
	EventBeginObject EventType = iota
	EventBeginArray
	EventEnd
	EventName
	EventNull
	EventBool
	EventInt
	EventFloat
	EventString
)

var eventTypeNames = map[EventType]string{
	EventBeginObject: "BeginObject",
	EventBeginArray:  "BeginArray",
	EventEnd:         "End",
	EventName:        "Name",
	EventNull:        "Null",
	EventBool:        "Bool",
	EventInt:         "Int",
	EventFloat:       "Float",
	EventString:      "String",
}

func (t EventType) String() string {
	if s, ok := eventTypeNames[t]; ok {
		return s
	}
	return "Unknown"
}

// IsValueStart reports whether the event produces a value (as opposed to a
// name or a container end).
func (t EventType) IsValueStart() bool {
	return t != EventEnd && t != EventName
}

func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *EventType) UnmarshalText(d []byte) error {
	k := string(d)
	for et, name := range eventTypeNames {
		if name == k {
			*t = et
			return nil
		}
	}
	return fmt.Errorf("unknown event type %q", k)
}

// Event is one token of the ingestion stream. Text carries names, strings and
// the literal text of numbers; Bool carries booleans.
type Event struct {
	Type EventType
	Text string
	Bool bool
}

func (e Event) String() string {
	switch e.Type {
	case EventName, EventInt, EventFloat, EventString:
		return e.Type.String() + "(" + e.Text + ")"
	case EventBool:
		return fmt.Sprintf("Bool(%v)", e.Bool)
	default:
		return e.Type.String()
	}
}

// Handler consumes ingestion events. Every Name is followed by exactly one
// value or container begin, and every container begin is eventually matched
// by one End.
type Handler interface {
	BeginObject() error
	BeginArray() error
	End() error
	Name(text string) error
	Null() error
	Bool(v bool) error
	Int(text string) error
	Float(text string) error
	String(text string) error
}

// Dispatch delivers e to h.
func Dispatch(h Handler, e Event) error {
	switch e.Type {
	case EventBeginObject:
		return h.BeginObject()
	case EventBeginArray:
		return h.BeginArray()
	case EventEnd:
		return h.End()
	case EventName:
		return h.Name(e.Text)
	case EventNull:
		return h.Null()
	case EventBool:
		return h.Bool(e.Bool)
	case EventInt:
		return h.Int(e.Text)
	case EventFloat:
		return h.Float(e.Text)
	case EventString:
		return h.String(e.Text)
	default:
		return fmt.Errorf("unknown event type %d", int(e.Type))
	}
}

// Events adapts a slice of events into a sequence for Tree.Load.
func Events(evs ...Event) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for _, e := range evs {
			if !yield(e) {
				return
			}
		}
	}
}

// Recorder is a Handler that collects the events it receives.
type Recorder struct {
	Events []Event
}

func (r *Recorder) add(e Event) error {
	r.Events = append(r.Events, e)
	return nil
}

func (r *Recorder) BeginObject() error    { return r.add(Event{Type: EventBeginObject}) }
func (r *Recorder) BeginArray() error     { return r.add(Event{Type: EventBeginArray}) }
func (r *Recorder) End() error            { return r.add(Event{Type: EventEnd}) }
func (r *Recorder) Name(s string) error   { return r.add(Event{Type: EventName, Text: s}) }
func (r *Recorder) Null() error           { return r.add(Event{Type: EventNull}) }
func (r *Recorder) Bool(v bool) error     { return r.add(Event{Type: EventBool, Bool: v}) }
func (r *Recorder) Int(s string) error    { return r.add(Event{Type: EventInt, Text: s}) }
func (r *Recorder) Float(s string) error  { return r.add(Event{Type: EventFloat, Text: s}) }
func (r *Recorder) String(s string) error { return r.add(Event{Type: EventString, Text: s}) }

package ops

// The operations narrate what they do through an event stream instead of
// writing to stdout. The CLI decides how to render events; tests and
// embedders can discard or capture them.

// Kind classifies an event.
type Kind int

const (
	// KindStep marks a stage of an operation: a fetch, a proof, a submit.
	KindStep Kind = iota
	// KindNote carries supplementary detail about the previous step.
	KindNote
	// KindWarning flags a condition the user should act on.
	KindWarning
)

// Attr is one key/value detail attached to an event.
type Attr struct {
	Key   string
	Value string
}

// Event is one narration record.
type Event struct {
	Kind    Kind
	Message string
	Attrs   []Attr
}

// Sink consumes events.
type Sink interface {
	Emit(Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Emit(Event) {}

// KV builds an attribute.
func KV(key, value string) Attr {
	return Attr{Key: key, Value: value}
}

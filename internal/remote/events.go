package remote

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// ChangeEvent is one row change pushed by the notification channel. Record
// may be partial; DELETE payloads often carry only the id.
type ChangeEvent struct {
	Type   EventType
	Table  string
	Record Record
}

// ID returns the id of the affected row, falling back to nothing when the
// payload doesn't carry one.
func (e ChangeEvent) ID() string {
	return e.Record.ID()
}

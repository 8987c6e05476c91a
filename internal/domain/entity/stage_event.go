package entity

// StageEvent is one timing record emitted by a pipeline stage. Every stage
// produces exactly two: an enter event (nil Fields) and a leave event
// carrying the fields the stage resolved. Pairing is by adjacent index, not
// by name.
type StageEvent struct {
	Name      string            `json:"name"`
	Timestamp int64             `json:"timestamp"` // unix milliseconds
	Fields    map[string]string `json:"fields,omitempty"`
}

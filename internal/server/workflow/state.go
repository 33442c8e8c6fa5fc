package workflow

import "fmt"

// State is the position of one in-flight operation.
type State int

const (
	Idle State = iota
	Validating
	GeoEnriching
	Persisting
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case GeoEnriching:
		return "geo_enriching"
	case Persisting:
		return "persisting"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

type OpKind string

const (
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

// Transition is reported to an Observer on every state change. Err is set
// only when To is Failed.
type Transition struct {
	Op   OpKind
	ID   string
	From State
	To   State
	Err  error
}

type Observer func(Transition)

package transaction

var transitions = map[Status][]Status{
	StatusStart:   {StatusPending, StatusFailureOnStart},
	StatusPending: {StatusSuccess, StatusFailureOnFinish, StatusCancelled, StatusRefunded},
}

// CanTransition reports whether from -> to is an edge of the lifecycle graph.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) Valid() bool {
	switch s {
	case StatusStart, StatusPending, StatusSuccess, StatusFailureOnStart,
		StatusFailureOnFinish, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// IsTerminal is true for every state without outgoing edges.
func (s Status) IsTerminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

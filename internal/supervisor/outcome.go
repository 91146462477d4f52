package supervisor

// Outcome classifies the result of a lifecycle command so callers can
// branch on the idempotent cases explicitly instead of suppressing errors.
type Outcome int

const (
	// OutcomeSucceeded means the supervisor accepted and executed the command.
	OutcomeSucceeded Outcome = iota
	// OutcomeNotFound means the supervisor has no process under that name.
	OutcomeNotFound
	// OutcomeUnavailable means the supervisor could not be reached or its
	// output could not be understood.
	OutcomeUnavailable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeNotFound:
		return "not-found"
	case OutcomeUnavailable:
		return "unavailable"
	}
	return "unknown"
}

package coordinator

// Status is the readiness state surfaced to callers. Transitions go through
// the table below; anything else is rejected.
type Status string

const (
	StatusIdle             Status = "idle"
	StatusWaitingForWallet Status = "waiting_for_wallet"
	StatusInitializing     Status = "initializing"
	StatusReady            Status = "ready"
	StatusError            Status = "error"
)

// validTransitions is the FSM transition table. ready is only reachable from
// initializing, and error only from waiting_for_wallet (timeout) or
// initializing (delegate failure). Every state can fall back to idle when
// authentication is lost.
var validTransitions = map[Status][]Status{
	StatusIdle:             {StatusWaitingForWallet, StatusInitializing},
	StatusWaitingForWallet: {StatusInitializing, StatusError, StatusIdle},
	StatusInitializing:     {StatusReady, StatusError, StatusIdle},
	StatusReady:            {StatusIdle},
	StatusError:            {StatusIdle},
}

// CanTransitionTo reports whether moving from s to next is a legal transition.
// A self-transition is always a no-op and therefore legal.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	for _, allowed := range validTransitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}

// IsTerminalForSession reports whether the status needs an explicit caller
// action (retry or re-auth) to make progress.
func (s Status) IsTerminalForSession() bool {
	return s == StatusReady || s == StatusError
}

package model

// transitionMap lists the legal target statuses reachable from each status.
// completed and cancelled are terminal. There is no way back into waiting;
// a skipped token can only re-enter the queue through a recall to calling.
var transitionMap = map[TokenStatus][]TokenStatus{
	TokenStatusWaiting:   {TokenStatusCalling, TokenStatusCancelled},
	TokenStatusCalling:   {TokenStatusCompleted, TokenStatusSkipped, TokenStatusCancelled},
	TokenStatusSkipped:   {TokenStatusCalling, TokenStatusCancelled},
	TokenStatusCompleted: {},
	TokenStatusCancelled: {},
}

// CanTransition reports whether target is directly reachable from current.
// Re-applying the current status is not a legal transition; callers treat it
// as an idempotent no-op instead.
func CanTransition(current, target TokenStatus) bool {
	for _, allowed := range transitionMap[current] {
		if allowed == target {
			return true
		}
	}
	return false
}

package api

// SafetyLevel is the risk classification of an action or set of actions.
// It is computed on demand and never persisted.
type SafetyLevel string

const (
	SafetySafe        SafetyLevel = "safe"
	SafetyCaution     SafetyLevel = "caution"
	SafetyDestructive SafetyLevel = "destructive"
)

// rank orders levels so that destructive dominates caution dominates safe.
func (l SafetyLevel) rank() int {
	switch l {
	case SafetyDestructive:
		return 2
	case SafetyCaution:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether l is at least as severe as other.
func (l SafetyLevel) AtLeast(other SafetyLevel) bool {
	return l.rank() >= other.rank()
}

// MaxSafetyLevel returns the more severe of two levels.
func MaxSafetyLevel(a, b SafetyLevel) SafetyLevel {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

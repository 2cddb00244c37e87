package course

// Gate decides which weeks of the course need the pro entitlement. The
// first FreeWeeks weeks are open to everyone.
type Gate struct {
	FreeWeeks int
}

func (g Gate) Locked(weekID int, isPro bool) bool {
	if isPro {
		return false
	}
	return weekID > g.FreeWeeks
}

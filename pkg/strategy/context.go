package strategy

// Context (§3.1) is threaded through every core call to enable log
// correlation. It never affects decisions beyond identity.
type Context struct {
	CorrelationID string
	User          string
	StrategyID    *uint64
}

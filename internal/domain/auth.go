package domain

// AuthStrategy names how a caller proved its identity.
type AuthStrategy string

const (
	AuthStrategyBearer AuthStrategy = "BEARER"
	// AuthStrategyHeader is the unsigned identifier+email path kept for older clients.
	AuthStrategyHeader AuthStrategy = "HEADER"
)

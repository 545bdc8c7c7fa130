package domain

// Role represents the marketplace role of an account.
type Role string

const (
	RoleHost  Role = "HOST"
	RoleGuest Role = "GUEST"
	RoleAdmin Role = "ADMIN"
	RoleNone  Role = "NONE"

	// RoleSystem marks closures forced by the automation sweeper.
	RoleSystem Role = "SYSTEM"
)

// Well-known custody accounts. Guest and host funds live under their account
// ids; these hold the engine's side of every movement.
const (
	AccountEscrow        = "escrow"
	AccountPlatform      = "platform"
	AccountInsurancePool = "insurance_pool"
)

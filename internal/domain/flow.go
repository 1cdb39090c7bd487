package domain

// FlowState is the single authoritative step of a login attempt
type FlowState int

const (
	StateAwaitingCredentials FlowState = iota
	StatePasswordVerified
	StateAwaitingOtpEntry
	StateAuthenticated
)

// String returns a stable name for logs and audit rows
func (s FlowState) String() string {
	switch s {
	case StateAwaitingCredentials:
		return "awaiting_credentials"
	case StatePasswordVerified:
		return "password_verified"
	case StateAwaitingOtpEntry:
		return "awaiting_otp_entry"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further action can advance the flow
func (s FlowState) Terminal() bool {
	return s == StateAuthenticated
}

// Identity is the minimal user record returned by a successful credential check
type Identity struct {
	ID    string
	Email string
}

// OTPChallenge exists between a successful OTP generation and the verification result.
// Code is whatever the user typed; it is never validated locally.
type OTPChallenge struct {
	Email string
	Code  string
}

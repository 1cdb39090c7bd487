package domain

import "time"

// LoginStep names the step of the flow an event belongs to
type LoginStep string

const (
	StepCredentials LoginStep = "credentials"
	StepOTPGenerate LoginStep = "otp_generate"
	StepOTPVerify   LoginStep = "otp_verify"
)

// LoginOutcome is the result of a step
type LoginOutcome string

const (
	OutcomeSuccess LoginOutcome = "success"
	OutcomeFailure LoginOutcome = "failure"
	// OutcomeRejected marks input refused locally, before any network call
	OutcomeRejected LoginOutcome = "rejected"
)

// LoginEvent is one audit record. It never carries a password or an OTP code.
type LoginEvent struct {
	ID        int64
	AttemptID string
	Subject   string
	Email     string
	Step      LoginStep
	Outcome   LoginOutcome
	Detail    string
	CreatedAt time.Time
}

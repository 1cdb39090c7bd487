package login

import (
	"errors"
	"fmt"

	"mfalogin/internal/domain"
)

// User-visible status texts
const (
	MsgCredentialsRequired = "Email and password are required"
	MsgInvalidCredentials  = "Invalid credentials"
	MsgLoginUnavailable    = "Invalid credentials or server error"

	MsgIdentityMissing    = "Error: User email not found."
	MsgSendingOTP         = "Sending OTP..."
	MsgOTPSent            = "OTP sent successfully."
	MsgSendFailedPrefix   = "Failed to send OTP: "
	MsgServiceUnreachable = "Cannot reach MFA service."

	MsgOTPMissing         = "Email or OTP missing."
	MsgVerifyingOTP       = "Verifying OTP..."
	MsgVerified           = "MFA Verification Successful!"
	MsgVerifyFailedPrefix = "Verification failed: "
	MsgInvalidOTP         = "Invalid or expired OTP"
)

// Snapshot is a read-only copy of a Flow
type Snapshot struct {
	State     domain.FlowState
	Attempt   uint64
	AttemptID string
	// Pending is set while a network call of the current attempt is in flight
	Pending bool
	// Email is the last submitted email, kept so a failed check does not force re-entry
	Email       string
	Identity    *domain.Identity
	Challenge   *domain.OTPChallenge
	Message     string
	MfaMessage  string
	ShowOTPForm bool
}

// Status returns the message that belongs to the current step
func (s Snapshot) Status() string {
	if s.State == domain.StateAwaitingCredentials {
		return s.Message
	}
	return s.MfaMessage
}

// credentialFailureMessage hides which field was wrong on a rejection
func credentialFailureMessage(err error) string {
	var svcErr *domain.ServiceError
	if errors.As(err, &svcErr) {
		if svcErr.ClientError() {
			return MsgInvalidCredentials
		}
		if svcErr.Message != "" {
			return svcErr.Message
		}
	}
	return MsgLoginUnavailable
}

// otpFailureDetail prefers the service's own message over the transport error
func otpFailureDetail(err error, fallback string) string {
	var svcErr *domain.ServiceError
	if errors.As(err, &svcErr) && svcErr.Message != "" {
		return svcErr.Message
	}
	return fallback
}

func otpTooLongMessage(max int) string {
	return fmt.Sprintf("OTP must be at most %d characters.", max)
}

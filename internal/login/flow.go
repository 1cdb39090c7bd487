// Package login sequences a password check, an OTP request and an OTP
// verification into a single login attempt. Credential and OTP checks are
// delegated to external services; this package only owns the flow state.
package login

import (
	"context"
	"errors"
	"strings"
	"sync"

	"mfalogin/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxOTPLength matches the code length issued by the OTP service
const DefaultMaxOTPLength = 6

var (
	ErrMissingCredentials = errors.New("login: email and password are required")
	ErrNoVerifiedIdentity = errors.New("login: no verified identity")
	ErrMissingOTP         = errors.New("login: email or otp missing")
	ErrOTPTooLong         = errors.New("login: otp exceeds maximum length")
	ErrInvalidState       = errors.New("login: action not allowed in current state")
	ErrActionPending      = errors.New("login: another action is in flight")
	// ErrStaleAttempt is returned when a response arrives after the flow was restarted.
	// The response is dropped.
	ErrStaleAttempt = errors.New("login: response belongs to an abandoned attempt")
)

// CredentialChecker verifies an email/password pair
type CredentialChecker interface {
	CheckCredentials(ctx context.Context, email, password string) (*domain.Identity, error)
}

// OTPService issues and verifies one-time passcodes.
// Both calls return the service's status message.
type OTPService interface {
	GenerateOTP(ctx context.Context, email string) (string, error)
	VerifyOTP(ctx context.Context, email, code string) (string, error)
}

// EventSink receives the outcome of every resolved step
type EventSink interface {
	Record(ctx context.Context, event domain.LoginEvent)
}

// ActionOption customizes a single InitiateMfa or VerifyOtp call
type ActionOption func(*actionOptions)

type actionOptions struct {
	onPending func(Snapshot)
}

// OnPending runs fn with the in-flight snapshot after local checks pass and before the network call
func OnPending(fn func(Snapshot)) ActionOption {
	return func(o *actionOptions) {
		o.onPending = fn
	}
}

func applyOptions(opts []ActionOption) actionOptions {
	var o actionOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Config tunes a Flow
type Config struct {
	// Subject identifies who drives the flow in audit records (e.g. "telegram:42")
	Subject      string
	MaxOTPLength int
}

// Flow is the state machine of one login attempt at a time.
// It is safe for concurrent use; network calls run without holding the lock.
type Flow struct {
	relay  CredentialChecker
	otp    OTPService
	sink   EventSink
	logger *zap.Logger
	cfg    Config

	mu        sync.Mutex
	state     domain.FlowState
	attempt   uint64
	attemptID string
	pending   bool

	email       string
	identity    *domain.Identity
	challenge   *domain.OTPChallenge
	message     string
	mfaMessage  string
	showOTPForm bool
}

// NewFlow creates a flow in AwaitingCredentials. sink may be nil.
func NewFlow(relay CredentialChecker, otp OTPService, sink EventSink, cfg Config, logger *zap.Logger) *Flow {
	if cfg.MaxOTPLength <= 0 {
		cfg.MaxOTPLength = DefaultMaxOTPLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Flow{
		relay:  relay,
		otp:    otp,
		sink:   sink,
		logger: logger,
		cfg:    cfg,
	}
	f.resetLocked()
	return f
}

// Restart abandons the current attempt. Responses still in flight are ignored.
func (f *Flow) Restart() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
}

// resetLocked clears everything downstream of the credential form and fences off the old attempt
func (f *Flow) resetLocked() {
	f.attempt++
	f.attemptID = uuid.NewString()
	f.state = domain.StateAwaitingCredentials
	f.pending = false
	f.identity = nil
	f.challenge = nil
	f.message = ""
	f.mfaMessage = ""
	f.showOTPForm = false
}

// Submit starts a new attempt with the given credentials.
// It is accepted in every state and always restarts the flow first.
func (f *Flow) Submit(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)

	f.mu.Lock()
	f.resetLocked()
	f.email = email
	attemptID := f.attemptID
	if email == "" || password == "" {
		f.message = MsgCredentialsRequired
		f.mu.Unlock()
		f.record(ctx, attemptID, email, domain.StepCredentials, domain.OutcomeRejected, MsgCredentialsRequired)
		return ErrMissingCredentials
	}
	attempt := f.attempt
	f.pending = true
	f.mu.Unlock()

	identity, err := f.relay.CheckCredentials(ctx, email, password)

	f.mu.Lock()
	if attempt != f.attempt {
		f.mu.Unlock()
		f.logger.Debug("Dropping stale credential response", zap.String("attempt_id", attemptID))
		return ErrStaleAttempt
	}
	f.pending = false

	if err != nil {
		f.message = credentialFailureMessage(err)
		msg := f.message
		f.mu.Unlock()

		f.logger.Warn("Credential check failed", zap.String("email", email), zap.Error(err))
		f.record(ctx, attemptID, email, domain.StepCredentials, domain.OutcomeFailure, msg)
		return err
	}

	verified := domain.Identity{Email: email}
	if identity != nil {
		verified.ID = identity.ID
		if identity.Email != "" {
			verified.Email = identity.Email
		}
	}
	f.identity = &verified
	f.state = domain.StatePasswordVerified
	f.message = ""
	f.mu.Unlock()

	f.logger.Info("Password verified", zap.String("email", verified.Email), zap.String("user_id", verified.ID))
	f.record(ctx, attemptID, verified.Email, domain.StepCredentials, domain.OutcomeSuccess, "")
	return nil
}

// InitiateMfa asks the OTP service to send a code to the verified email.
// It is allowed in PasswordVerified, and in AwaitingOtpEntry to resend a code.
func (f *Flow) InitiateMfa(ctx context.Context, opts ...ActionOption) error {
	o := applyOptions(opts)

	f.mu.Lock()
	attemptID := f.attemptID
	if f.identity == nil || f.identity.Email == "" {
		f.mfaMessage = MsgIdentityMissing
		f.mu.Unlock()
		f.record(ctx, attemptID, "", domain.StepOTPGenerate, domain.OutcomeRejected, MsgIdentityMissing)
		return ErrNoVerifiedIdentity
	}
	if f.pending {
		f.mu.Unlock()
		return ErrActionPending
	}
	if f.state != domain.StatePasswordVerified && f.state != domain.StateAwaitingOtpEntry {
		f.mu.Unlock()
		return ErrInvalidState
	}
	email := f.identity.Email
	attempt := f.attempt
	f.pending = true
	f.state = domain.StatePasswordVerified
	f.challenge = nil
	f.showOTPForm = false
	f.mfaMessage = MsgSendingOTP
	inFlight := f.snapshotLocked()
	f.mu.Unlock()

	if o.onPending != nil {
		o.onPending(inFlight)
	}

	message, err := f.otp.GenerateOTP(ctx, email)

	f.mu.Lock()
	if attempt != f.attempt {
		f.mu.Unlock()
		f.logger.Debug("Dropping stale OTP generation response", zap.String("attempt_id", attemptID))
		return ErrStaleAttempt
	}
	f.pending = false

	if err != nil {
		f.showOTPForm = false
		f.mfaMessage = MsgSendFailedPrefix + otpFailureDetail(err, MsgServiceUnreachable)
		msg := f.mfaMessage
		f.mu.Unlock()

		f.logger.Warn("OTP generation failed", zap.String("email", email), zap.Error(err))
		f.record(ctx, attemptID, email, domain.StepOTPGenerate, domain.OutcomeFailure, msg)
		return err
	}

	if message == "" {
		message = MsgOTPSent
	}
	f.state = domain.StateAwaitingOtpEntry
	f.challenge = &domain.OTPChallenge{Email: email}
	f.showOTPForm = true
	f.mfaMessage = message
	f.mu.Unlock()

	f.logger.Info("OTP sent", zap.String("email", email))
	f.record(ctx, attemptID, email, domain.StepOTPGenerate, domain.OutcomeSuccess, message)
	return nil
}

// VerifyOtp submits the user-entered code. Only its length is checked locally.
func (f *Flow) VerifyOtp(ctx context.Context, code string, opts ...ActionOption) error {
	code = strings.TrimSpace(code)
	o := applyOptions(opts)

	f.mu.Lock()
	attemptID := f.attemptID
	email := ""
	if f.identity != nil {
		email = f.identity.Email
	}
	if email == "" || code == "" {
		f.mfaMessage = MsgOTPMissing
		f.mu.Unlock()
		f.record(ctx, attemptID, email, domain.StepOTPVerify, domain.OutcomeRejected, MsgOTPMissing)
		return ErrMissingOTP
	}
	if len([]rune(code)) > f.cfg.MaxOTPLength {
		f.mfaMessage = otpTooLongMessage(f.cfg.MaxOTPLength)
		msg := f.mfaMessage
		f.mu.Unlock()
		f.record(ctx, attemptID, email, domain.StepOTPVerify, domain.OutcomeRejected, msg)
		return ErrOTPTooLong
	}
	if f.pending {
		f.mu.Unlock()
		return ErrActionPending
	}
	if f.state != domain.StateAwaitingOtpEntry || f.challenge == nil {
		f.mu.Unlock()
		return ErrInvalidState
	}
	attempt := f.attempt
	f.pending = true
	f.challenge.Code = code
	f.mfaMessage = MsgVerifyingOTP
	inFlight := f.snapshotLocked()
	f.mu.Unlock()

	if o.onPending != nil {
		o.onPending(inFlight)
	}

	message, err := f.otp.VerifyOTP(ctx, email, code)

	f.mu.Lock()
	if attempt != f.attempt {
		f.mu.Unlock()
		f.logger.Debug("Dropping stale OTP verification response", zap.String("attempt_id", attemptID))
		return ErrStaleAttempt
	}
	f.pending = false

	if err != nil {
		if f.challenge != nil {
			f.challenge.Code = ""
		}
		f.mfaMessage = MsgVerifyFailedPrefix + otpFailureDetail(err, MsgInvalidOTP)
		msg := f.mfaMessage
		f.mu.Unlock()

		f.logger.Warn("OTP verification failed", zap.String("email", email), zap.Error(err))
		f.record(ctx, attemptID, email, domain.StepOTPVerify, domain.OutcomeFailure, msg)
		return err
	}

	if message == "" {
		message = MsgVerified
	}
	f.state = domain.StateAuthenticated
	f.challenge = nil
	f.showOTPForm = false
	f.mfaMessage = message
	f.mu.Unlock()

	f.logger.Info("Login completed", zap.String("email", email))
	f.record(ctx, attemptID, email, domain.StepOTPVerify, domain.OutcomeSuccess, message)
	return nil
}

// Snapshot returns a copy of the current flow state
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Flow) snapshotLocked() Snapshot {
	s := Snapshot{
		State:       f.state,
		Attempt:     f.attempt,
		AttemptID:   f.attemptID,
		Pending:     f.pending,
		Email:       f.email,
		Message:     f.message,
		MfaMessage:  f.mfaMessage,
		ShowOTPForm: f.showOTPForm,
	}
	if f.identity != nil {
		identity := *f.identity
		s.Identity = &identity
	}
	if f.challenge != nil {
		challenge := *f.challenge
		s.Challenge = &challenge
	}
	return s
}

func (f *Flow) record(ctx context.Context, attemptID, email string, step domain.LoginStep, outcome domain.LoginOutcome, detail string) {
	if f.sink == nil {
		return
	}
	f.sink.Record(ctx, domain.LoginEvent{
		AttemptID: attemptID,
		Subject:   f.cfg.Subject,
		Email:     email,
		Step:      step,
		Outcome:   outcome,
		Detail:    detail,
	})
}

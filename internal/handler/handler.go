package handler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mfalogin/internal/login"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v3"
)

const (
	defaultAttemptsPerMinute = 5
	defaultMaxFailures       = 10
	defaultFailureWindow     = 15 * time.Minute
)

// FlowFactory builds a fresh login flow for an audit subject
type FlowFactory func(subject string) *login.Flow

// FailureCounter reports recent unsuccessful login steps of a subject
type FailureCounter interface {
	RecentFailures(ctx context.Context, subject string, window time.Duration) (int, error)
}

// Options tunes the handler. Zero values fall back to defaults.
type Options struct {
	Links             Links
	AttemptsPerMinute int
	// Failures enables the lockout when set
	Failures      FailureCounter
	MaxFailures   int
	FailureWindow time.Duration
}

// Handler manages all bot interactions
type Handler struct {
	bot     *tele.Bot
	newFlow FlowFactory
	opts    Options
	logger  *zap.Logger

	// Login sessions per chat
	sessions   map[int64]*chatSession
	sessionMux sync.RWMutex
}

// chatSession is the login form of one chat
type chatSession struct {
	flow    *login.Flow
	limiter *rate.Limiter

	mu       sync.Mutex
	step     formStep
	email    string
	lastSeen time.Time
}

// NewHandler creates a new handler instance
func NewHandler(bot *tele.Bot, newFlow FlowFactory, opts Options, logger *zap.Logger) *Handler {
	if opts.AttemptsPerMinute <= 0 {
		opts.AttemptsPerMinute = defaultAttemptsPerMinute
	}
	if opts.MaxFailures <= 0 {
		opts.MaxFailures = defaultMaxFailures
	}
	if opts.FailureWindow <= 0 {
		opts.FailureWindow = defaultFailureWindow
	}
	return &Handler{
		bot:      bot,
		newFlow:  newFlow,
		opts:     opts,
		logger:   logger,
		sessions: make(map[int64]*chatSession),
	}
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	h.bot.Handle("/start", h.handleStart)
	h.bot.Handle(tele.OnText, h.handleText)

	h.bot.Handle(&btnSendCode, h.handleSendCode)
	h.bot.Handle(&btnResendCode, h.handleSendCode)
	h.bot.Handle(&btnStartOver, h.handleStartOver)

	// Generic callback handler for buttons whose unique did not come through
	h.bot.Handle(tele.OnCallback, h.handleCallback)
}

// session returns the chat's login session, creating it on first use
func (h *Handler) session(chatID int64) *chatSession {
	h.sessionMux.RLock()
	s, exists := h.sessions[chatID]
	h.sessionMux.RUnlock()
	if exists {
		s.touch()
		return s
	}

	h.sessionMux.Lock()
	defer h.sessionMux.Unlock()
	if s, exists = h.sessions[chatID]; exists {
		s.touch()
		return s
	}
	per := time.Minute / time.Duration(h.opts.AttemptsPerMinute)
	s = &chatSession{
		flow:    h.newFlow(subject(chatID)),
		limiter: rate.NewLimiter(rate.Every(per), h.opts.AttemptsPerMinute),
	}
	s.touch()
	h.sessions[chatID] = s
	return s
}

// PruneSessions drops sessions idle for longer than maxIdle and returns how many were removed.
// Sessions with a call in flight are kept.
func (h *Handler) PruneSessions(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	h.sessionMux.Lock()
	defer h.sessionMux.Unlock()

	removed := 0
	for chatID, s := range h.sessions {
		if s.idleSince().After(cutoff) || s.flow.Snapshot().Pending {
			continue
		}
		delete(h.sessions, chatID)
		removed++
	}
	return removed
}

func (s *chatSession) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *chatSession) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// restart abandons the flow and goes back to the email prompt
func (s *chatSession) restart() {
	s.flow.Restart()
	s.mu.Lock()
	s.step = stepEmail
	s.email = ""
	s.mu.Unlock()
}

func (s *chatSession) form() (formStep, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step, s.email
}

func (s *chatSession) setForm(step formStep, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = step
	s.email = email
}

// view collects what render needs for this chat
func (h *Handler) view(s *chatSession, snapshot login.Snapshot) view {
	step, email := s.form()
	return view{
		Snapshot:  snapshot,
		Step:      step,
		FormEmail: email,
		Links:     h.opts.Links,
	}
}

// show edits the message behind a callback or sends a new one
func (h *Handler) show(c tele.Context, s *chatSession) error {
	text, markup := render(h.view(s, s.flow.Snapshot()))
	opts := []interface{}{}
	if markup != nil {
		opts = append(opts, markup)
	}

	if c.Callback() != nil {
		if err := c.Edit(text, opts...); err != nil {
			if handleErr := h.handleEditError(err, c, c.Chat().ID); handleErr == nil {
				return nil
			}
			return c.Send(text, opts...)
		}
		return c.Respond()
	}
	return c.Send(text, opts...)
}

// showPending draws an in-flight snapshot without a keyboard so the action cannot be started twice.
// The callback is answered later by show.
func (h *Handler) showPending(c tele.Context, s *chatSession, snapshot login.Snapshot) {
	text, _ := render(h.view(s, snapshot))

	var err error
	if c.Callback() != nil {
		err = c.Edit(text)
	} else {
		err = c.Send(text)
	}
	if err != nil {
		h.logger.Debug("Failed to show pending status", zap.Int64("chat_id", c.Chat().ID), zap.Error(err))
	}
}

func subject(chatID int64) string {
	return fmt.Sprintf("telegram:%d", chatID)
}

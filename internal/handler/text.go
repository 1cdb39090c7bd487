package handler

import (
	"context"
	"errors"
	"strings"

	"mfalogin/internal/domain"
	"mfalogin/internal/login"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const (
	msgThrottled    = "⏳ Too many login attempts. Wait a minute and try again."
	msgLockedOut    = "🔒 Too many failed attempts. Try again later."
	msgUseButton    = "Use the button below to receive your code."
	msgStillWorking = "⏳ Still working on your previous request..."
)

// handleText handles all text messages based on the flow state
func (h *Handler) handleText(c tele.Context) error {
	text := strings.TrimSpace(c.Text())

	// Ignore commands (starting with /)
	if strings.HasPrefix(text, "/") {
		return nil
	}

	chatID := c.Chat().ID
	s := h.session(chatID)
	snapshot := s.flow.Snapshot()
	if snapshot.State.Terminal() {
		h.logger.Debug("Text after login ignored", zap.Int64("chat_id", chatID))
		return h.show(c, s)
	}

	switch snapshot.State {
	case domain.StateAwaitingCredentials:
		step, email := s.form()
		if step == stepEmail {
			s.setForm(stepPassword, text)
			return h.show(c, s)
		}
		return h.submitPassword(c, s, email, text)

	case domain.StatePasswordVerified:
		if snapshot.Pending {
			return c.Send(msgStillWorking)
		}
		if err := c.Send(msgUseButton); err != nil {
			return err
		}
		return h.show(c, s)

	case domain.StateAwaitingOtpEntry:
		return h.verifyCode(c, s, text)
	}

	h.logger.Warn("Text in unexpected state", zap.Int64("chat_id", chatID), zap.Stringer("state", snapshot.State))
	return h.show(c, s)
}

// submitPassword runs the credential check. The password message is removed from the chat first.
func (h *Handler) submitPassword(c tele.Context, s *chatSession, email, password string) error {
	chatID := c.Chat().ID
	if err := c.Delete(); err != nil {
		h.logger.Warn("Failed to delete password message", zap.Int64("chat_id", chatID), zap.Error(err))
	}

	if !s.limiter.Allow() {
		h.logger.Warn("Login attempts throttled", zap.Int64("chat_id", chatID))
		return c.Send(msgThrottled)
	}

	ctx := context.Background()
	if h.lockedOut(ctx, chatID) {
		return c.Send(msgLockedOut)
	}

	err := s.flow.Submit(ctx, email, password)
	if errors.Is(err, login.ErrStaleAttempt) {
		return nil
	}
	if err != nil {
		h.logger.Info("Login attempt failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return h.show(c, s)
}

func (h *Handler) verifyCode(c tele.Context, s *chatSession, code string) error {
	err := s.flow.VerifyOtp(context.Background(), code, login.OnPending(func(snapshot login.Snapshot) {
		h.showPending(c, s, snapshot)
	}))
	switch {
	case errors.Is(err, login.ErrStaleAttempt):
		return nil
	case errors.Is(err, login.ErrActionPending):
		return c.Send(msgStillWorking)
	case err != nil:
		h.logger.Info("Code verification failed",
			zap.Int64("chat_id", c.Chat().ID),
			zap.Stringer("state", s.flow.Snapshot().State),
			zap.Error(err),
		)
	default:
		h.logger.Info("Chat authenticated", zap.Int64("chat_id", c.Chat().ID))
	}
	return h.show(c, s)
}

// lockedOut reports whether the chat exceeded the failure budget. Storage errors never lock a chat out.
func (h *Handler) lockedOut(ctx context.Context, chatID int64) bool {
	if h.opts.Failures == nil {
		return false
	}
	count, err := h.opts.Failures.RecentFailures(ctx, subject(chatID), h.opts.FailureWindow)
	if err != nil {
		h.logger.Error("Failed to count recent failures", zap.Int64("chat_id", chatID), zap.Error(err))
		return false
	}
	if count >= h.opts.MaxFailures {
		h.logger.Warn("Chat locked out", zap.Int64("chat_id", chatID), zap.Int("failures", count))
		return true
	}
	return false
}

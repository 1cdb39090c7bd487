package handler

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"mfalogin/internal/login"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// cleanCallbackData removes all non-printable characters from callback data
func cleanCallbackData(data string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, strings.TrimSpace(data))
}

// handleEditError handles errors from c.Edit() - if message is not modified, just acknowledge callback
// Otherwise, acknowledge callback and return error so caller can send new message
func (h *Handler) handleEditError(err error, c tele.Context, chatID int64) error {
	if err == nil {
		return nil
	}

	if strings.Contains(err.Error(), "message is not modified") {
		h.logger.Debug("Message already up to date, acknowledging", zap.Int64("chat_id", chatID))
		c.Respond()
		return nil
	}

	h.logger.Warn("Failed to edit message, sending new", zap.Int64("chat_id", chatID), zap.Error(err))
	if ackErr := c.Respond(); ackErr != nil {
		h.logger.Warn("Failed to acknowledge callback", zap.Error(ackErr))
	}
	return err
}

// handleCallback handles callbacks not matched by a registered button
func (h *Handler) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		h.logger.Warn("handleCallback: callback is nil")
		return nil
	}

	action := callback.Unique
	if action == "" {
		action = cleanCallbackData(callback.Data)
	}

	switch action {
	case btnSendCode.Unique, btnResendCode.Unique:
		return h.handleSendCode(c)
	case btnStartOver.Unique:
		return h.handleStartOver(c)
	}

	h.logger.Warn("Unhandled callback",
		zap.String("data", cleanCallbackData(callback.Data)),
		zap.String("unique", callback.Unique),
	)
	return c.Respond()
}

// handleSendCode requests a code for the verified email, or a new one on resend
func (h *Handler) handleSendCode(c tele.Context) error {
	chatID := c.Chat().ID
	s := h.session(chatID)

	if err := c.Notify(tele.Typing); err != nil {
		h.logger.Debug("Failed to send chat action", zap.Error(err))
	}

	err := s.flow.InitiateMfa(context.Background(), login.OnPending(func(snapshot login.Snapshot) {
		h.showPending(c, s, snapshot)
	}))
	switch {
	case errors.Is(err, login.ErrStaleAttempt):
		return c.Respond()
	case errors.Is(err, login.ErrActionPending):
		return c.Respond(&tele.CallbackResponse{Text: "Already sending a code..."})
	case errors.Is(err, login.ErrInvalidState):
		h.logger.Debug("Stale code button", zap.Int64("chat_id", chatID), zap.Stringer("state", s.flow.Snapshot().State))
		return c.Respond(&tele.CallbackResponse{Text: "This button is no longer active."})
	case err != nil:
		h.logger.Info("Code request failed", zap.Int64("chat_id", chatID), zap.Error(err))
	default:
		h.logger.Info("Code requested", zap.Int64("chat_id", chatID))
	}
	return h.show(c, s)
}

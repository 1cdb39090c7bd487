package handler

import (
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleStart handles /start command
func (h *Handler) handleStart(c tele.Context) error {
	chatID := c.Chat().ID

	h.logger.Info("User started login",
		zap.Int64("chat_id", chatID),
		zap.String("username", c.Sender().Username),
	)

	s := h.session(chatID)
	s.restart()
	return h.show(c, s)
}

// handleStartOver handles the "Start over" button
func (h *Handler) handleStartOver(c tele.Context) error {
	chatID := c.Chat().ID
	h.logger.Info("Login restarted", zap.Int64("chat_id", chatID))

	s := h.session(chatID)
	s.restart()
	return h.show(c, s)
}

package middleware

import (
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const msgPrivateOnly = "🔒 For your security, log in from a private chat with the bot."

// PrivateChatOnly keeps the login flow out of group chats, where other members could read credentials
func PrivateChatOnly(logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			if chat != nil && chat.Type == tele.ChatPrivate {
				return next(c)
			}

			var chatID int64
			var chatType tele.ChatType
			if chat != nil {
				chatID = chat.ID
				chatType = chat.Type
			}
			logger.Warn("Refusing login outside private chat",
				zap.Int64("chat_id", chatID),
				zap.String("chat_type", string(chatType)),
			)

			if c.Callback() != nil {
				return c.Respond(&tele.CallbackResponse{Text: msgPrivateOnly, ShowAlert: true})
			}
			if chat == nil {
				return nil
			}
			return c.Send(msgPrivateOnly)
		}
	}
}

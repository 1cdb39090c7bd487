package handler

import (
	"fmt"
	"strings"

	"mfalogin/internal/domain"
	"mfalogin/internal/login"

	tele "gopkg.in/telebot.v3"
)

// formStep tracks which credential the chat is typing
type formStep int

const (
	stepEmail formStep = iota
	stepPassword
)

// Links points to the companion services shown after login
type Links struct {
	NotificationURL string
	FeedbackURL     string
}

// view is everything the chat screen is drawn from
type view struct {
	Snapshot  login.Snapshot
	Step      formStep
	FormEmail string
	Links     Links
}

// Inline keyboard buttons
var (
	btnSendCode = tele.Btn{
		Unique: "send_code",
		Text:   "📨 Send MFA code",
	}
	btnResendCode = tele.Btn{
		Unique: "resend_code",
		Text:   "🔄 Resend code",
	}
	btnStartOver = tele.Btn{
		Unique: "start_over",
		Text:   "↩️ Start over",
	}
)

// render draws a flow snapshot as message text and keyboard
func render(v view) (string, *tele.ReplyMarkup) {
	s := v.Snapshot
	markup := &tele.ReplyMarkup{}
	var b strings.Builder

	switch s.State {
	case domain.StateAwaitingCredentials:
		if s.Message != "" {
			fmt.Fprintf(&b, "⚠️ %s\n\n", s.Message)
		}
		if v.Step == stepPassword {
			fmt.Fprintf(&b, "🔑 Enter the password for %s:", v.FormEmail)
			markup.Inline(markup.Row(btnStartOver))
			return b.String(), markup
		}
		b.WriteString("👋 Log in\n\n📧 Enter your email:")
		return b.String(), nil

	case domain.StatePasswordVerified:
		fmt.Fprintf(&b, "✅ Password verified for %s.\n\n", identityEmail(s))
		if s.MfaMessage != "" {
			fmt.Fprintf(&b, "%s\n\n", s.MfaMessage)
		}
		if s.Pending {
			return strings.TrimSpace(b.String()), nil
		}
		b.WriteString("Press the button to receive a one-time code.")
		markup.Inline(
			markup.Row(btnSendCode),
			markup.Row(btnStartOver),
		)
		return b.String(), markup

	case domain.StateAwaitingOtpEntry:
		if s.MfaMessage != "" {
			fmt.Fprintf(&b, "%s\n\n", s.MfaMessage)
		}
		if s.Pending {
			return strings.TrimSpace(b.String()), nil
		}
		fmt.Fprintf(&b, "🔢 Enter the code sent to %s:", identityEmail(s))
		markup.Inline(
			markup.Row(btnResendCode),
			markup.Row(btnStartOver),
		)
		return b.String(), markup

	case domain.StateAuthenticated:
		if s.MfaMessage != "" {
			fmt.Fprintf(&b, "🎉 %s\n\n", s.MfaMessage)
		}
		fmt.Fprintf(&b, "You are logged in as %s.", identityEmail(s))
		if v.Links.NotificationURL != "" {
			fmt.Fprintf(&b, "\n\n🔔 Notifications: %s", v.Links.NotificationURL)
		}
		if v.Links.FeedbackURL != "" {
			fmt.Fprintf(&b, "\n💬 Feedback: %s", v.Links.FeedbackURL)
		}
		markup.Inline(markup.Row(btnStartOver))
		return b.String(), markup
	}

	return "Send /start to log in.", nil
}

func identityEmail(s login.Snapshot) string {
	if s.Identity != nil {
		return s.Identity.Email
	}
	return s.Email
}

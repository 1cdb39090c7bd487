package testutil

import (
	"fmt"
	"sync"

	tele "gopkg.in/telebot.v3"
)

// SentMessage is a message the handler sent or edited
type SentMessage struct {
	Text   string
	Markup *tele.ReplyMarkup
}

// FakeContext records what a handler does with a Telegram update.
// Methods not overridden panic through the nil embedded Context.
type FakeContext struct {
	tele.Context

	ChatValue     *tele.Chat
	SenderValue   *tele.User
	TextValue     string
	CallbackValue *tele.Callback

	EditErr   error
	DeleteErr error

	mu        sync.Mutex
	Sent      []SentMessage
	Edited    []SentMessage
	Responses []*tele.CallbackResponse
	Deleted   int
	Actions   []tele.ChatAction
}

// NewFakeContext creates a context for a text update
func NewFakeContext(chat *tele.Chat, sender *tele.User, text string) *FakeContext {
	return &FakeContext{
		ChatValue:   chat,
		SenderValue: sender,
		TextValue:   text,
	}
}

// NewFakeCallback creates a context for an inline button press
func NewFakeCallback(chat *tele.Chat, sender *tele.User, unique string) *FakeContext {
	c := NewFakeContext(chat, sender, "")
	c.CallbackValue = &tele.Callback{ID: "callback-1", Unique: unique}
	return c
}

func (c *FakeContext) Chat() *tele.Chat { return c.ChatValue }
func (c *FakeContext) Sender() *tele.User { return c.SenderValue }
func (c *FakeContext) Text() string { return c.TextValue }
func (c *FakeContext) Callback() *tele.Callback { return c.CallbackValue }

func (c *FakeContext) Send(what interface{}, opts ...interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Sent = append(c.Sent, newSentMessage(what, opts))
	return nil
}

func (c *FakeContext) Edit(what interface{}, opts ...interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.EditErr != nil {
		return c.EditErr
	}
	c.Edited = append(c.Edited, newSentMessage(what, opts))
	return nil
}

func (c *FakeContext) Respond(resp ...*tele.CallbackResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var r *tele.CallbackResponse
	if len(resp) > 0 {
		r = resp[0]
	}
	c.Responses = append(c.Responses, r)
	return nil
}

func (c *FakeContext) Delete() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Deleted++
	return c.DeleteErr
}

func (c *FakeContext) Notify(action tele.ChatAction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Actions = append(c.Actions, action)
	return nil
}

// EditedMessages returns a copy of the edits so far; safe while a handler is running
func (c *FakeContext) EditedMessages() []SentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]SentMessage(nil), c.Edited...)
}

// SentMessages returns a copy of the sent messages so far; safe while a handler is running
func (c *FakeContext) SentMessages() []SentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]SentMessage(nil), c.Sent...)
}

// ResponseCount returns how many times the callback was answered
func (c *FakeContext) ResponseCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Responses)
}

// Last returns the most recent sent or edited message
func (c *FakeContext) Last() SentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.CallbackValue != nil && len(c.Edited) > 0 {
		return c.Edited[len(c.Edited)-1]
	}
	if len(c.Sent) == 0 {
		return SentMessage{}
	}
	return c.Sent[len(c.Sent)-1]
}

func newSentMessage(what interface{}, opts []interface{}) SentMessage {
	msg := SentMessage{Text: fmt.Sprint(what)}
	for _, opt := range opts {
		if markup, ok := opt.(*tele.ReplyMarkup); ok {
			msg.Markup = markup
		}
	}
	return msg
}

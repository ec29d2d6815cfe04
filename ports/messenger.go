package ports

import "context"

// Button is one inline keyboard button.
type Button struct {
	Text string
	Data string
}

// Messenger is the outbound boundary to the messaging transport.
type Messenger interface {
	// SendText sends a plain text message to a chat.
	SendText(ctx context.Context, chatID int64, text string) error

	// SendButtons sends a text message with an inline keyboard, one
	// row per entry.
	SendButtons(ctx context.Context, chatID int64, text string, rows [][]Button) error

	// EditText replaces the text of a previously sent message.
	EditText(ctx context.Context, chatID int64, messageID int64, text string) error

	// AnswerCallback acknowledges an inline button press.
	AnswerCallback(ctx context.Context, callbackID string) error

	// SendTyping shows the "typing..." chat action.
	SendTyping(ctx context.Context, chatID int64) error
}

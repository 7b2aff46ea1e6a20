package notifier

// TextNotifier defines a minimal text notification interface.
// It is intentionally small so callers can depend on it without importing
// a concrete delivery channel.
type TextNotifier interface {
	SendText(text string) error
}

// Noop discards every message. Used when notifications are disabled.
type Noop struct{}

func (Noop) SendText(string) error { return nil }

package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxWebhookMessageLen = 1900

// Webhook posts run summaries as JSON to a chat webhook (Discord-style
// {"content": ...} payload).
type Webhook struct {
	URL    string
	Client *http.Client
}

func NewWebhook(url string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Webhook{URL: url, Client: &http.Client{Timeout: timeout}}
}

// SendText posts the message with up to 3 retries and linear backoff.
func (w *Webhook) SendText(text string) error {
	if strings.TrimSpace(w.URL) == "" {
		return fmt.Errorf("webhook url is not configured")
	}
	if len(text) > maxWebhookMessageLen {
		text = text[:maxWebhookMessageLen] + "..."
	}
	body, _ := json.Marshal(map[string]any{"content": text})

	var lastErr error
	for i := 0; i < 3; i++ {
		req, err := http.NewRequest(http.MethodPost, w.URL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := w.Client.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode/100 == 2 {
			return nil
		}
		lastErr = fmt.Errorf("webhook status=%d", resp.StatusCode)
		time.Sleep(time.Duration(i+1) * time.Second)
	}
	return lastErr
}

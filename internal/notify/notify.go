package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Notifier delivers a human-readable message to a recipient, best effort.
// The workflow never blocks on delivery and never fails a transition over a
// notification.
type Notifier interface {
	Notify(ctx context.Context, recipient, title, body string) error
}

// LogNotifier writes notifications to the process log. Used when no push
// gateway is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, recipient, title, body string) error {
	log.Printf("[NOTIFY] [INFO] to=%s title=%q body=%q", recipient, title, body)
	return nil
}

// PushGateway posts notifications to the external push service. Sends are
// retried a fixed number of times; a send that still fails is the caller's
// to log and swallow.
type PushGateway struct {
	baseURL    string
	apiKey     string
	http       *http.Client
	attempts   int
	retryDelay time.Duration
}

func NewPushGateway(baseURL, apiKey string) *PushGateway {
	return &PushGateway{
		baseURL:    baseURL,
		apiKey:     apiKey,
		http:       &http.Client{Timeout: 5 * time.Second},
		attempts:   3,
		retryDelay: 2 * time.Second,
	}
}

type pushMessage struct {
	To    string `json:"to"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (g *PushGateway) Notify(ctx context.Context, recipient, title, body string) error {
	payload, err := json.Marshal(pushMessage{To: recipient, Title: title, Body: body})
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= g.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(g.retryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = g.send(ctx, payload)
		if lastErr == nil {
			return nil
		}
		log.Printf("[NOTIFY] [WARN] push attempt %d/%d failed: %v", attempt, g.attempts, lastErr)
	}

	return lastErr
}

func (g *PushGateway) send(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	res, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return fmt.Errorf("push gateway returned %d", res.StatusCode)
	}
	return nil
}

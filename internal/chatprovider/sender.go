package chatprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Sender posts outbound text messages to the chat platform's Messages API.
// Satisfies both window.Sender and delivery.Sender.
type Sender struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

func NewSender(baseURL, accessToken string) *Sender {
	return &Sender{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

type outboundMessage struct {
	MessagingProduct string      `json:"messaging_product"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             textPayload `json:"text"`
}

type textPayload struct {
	Body string `json:"body"`
}

// Send delivers a single text message to handle. A non-2xx response is
// returned as an error and is not retried — the caller (window.Manager /
// delivery.Dispatcher) records the failure and moves on (spec §6.1).
func (s *Sender) Send(ctx context.Context, handle, text string) error {
	body, err := json.Marshal(outboundMessage{
		MessagingProduct: "chat",
		To:               handle,
		Type:             "text",
		Text:             textPayload{Body: text},
	})
	if err != nil {
		return fmt.Errorf("marshal outbound message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build outbound request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("send message: platform returned status %d", resp.StatusCode)
	}
	return nil
}

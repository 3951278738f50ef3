package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"echosocial/pkg/logger"
)

// PushMessage is the body accepted by the Expo push relay.
type PushMessage struct {
	To    string            `json:"to"`
	Sound string            `json:"sound"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}

type PushTicket struct {
	Status  string `json:"status"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

type PushResponse struct {
	Data   json.RawMessage   `json:"data"`
	Errors []json.RawMessage `json:"errors,omitempty"`
}

type PushService interface {
	Send(ctx context.Context, msg PushMessage) error
}

// ExpoPushService posts notifications to Expo's push endpoint. Delivery is
// best effort: there is no retry and the receipt is only logged.
type ExpoPushService struct {
	endpoint string
	client   *http.Client
}

func NewExpoPushService(endpoint string) *ExpoPushService {
	return &ExpoPushService{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *ExpoPushService) Send(ctx context.Context, msg PushMessage) error {
	if msg.Sound == "" {
		msg.Sound = "default"
	}
	if msg.Data == nil {
		msg.Data = map[string]string{}
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create push request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read push response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push relay returned status %d: %s", resp.StatusCode, string(body))
	}

	var result PushResponse
	if err := json.Unmarshal(body, &result); err != nil {
		logger.Warn("Push relay returned unparseable body: %s", string(body))
		return nil
	}

	var ticket PushTicket
	if err := json.Unmarshal(result.Data, &ticket); err == nil && ticket.Status == "error" {
		logger.Warn("Push ticket error for %s: %s", msg.To, ticket.Message)
		return nil
	}

	logger.Debug("Push notification result: %s", string(body))
	return nil
}

// Package telegram is a minimal Bot API client: long-poll updates in,
// messages out. Only the fields this service reads are modeled.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/utils"
)

const apiBase = "https://api.telegram.org/bot"

// Telegram allows roughly 30 messages per second overall.
const sendBurst = 5

type Chat struct {
	ID int64 `json:"id"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

type Client struct {
	token   string
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(token string) *Client {
	return &Client{
		token: token,
		http: &http.Client{
			// Long polls run up to 30s server-side; leave headroom.
			Timeout: 50 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(30), sendBurst),
	}
}

func (c *Client) call(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := apiBase + c.token + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: telegram %s: %v", utils.ErrExternalServiceFailure, method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp apiResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return nil, fmt.Errorf("%w: telegram %s: invalid response: %v", utils.ErrExternalServiceFailure, method, err)
	}
	if !apiResp.OK {
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusForbidden {
			// Bad chat id, bot blocked by the user: retrying cannot help.
			return nil, fmt.Errorf("%w: telegram %s: %s", utils.ErrPermanentDeliveryFailure, method, apiResp.Description)
		}
		return nil, fmt.Errorf("%w: telegram %s: %s", utils.ErrExternalServiceFailure, method, apiResp.Description)
	}
	return apiResp.Result, nil
}

// GetUpdates long-polls for new updates past the given offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]Update, error) {
	payload := map[string]any{
		"offset":          offset,
		"timeout":         timeoutSeconds,
		"allowed_updates": []string{"message"},
	}
	result, err := c.call(ctx, "getUpdates", payload)
	if err != nil {
		return nil, err
	}

	var updates []Update
	if err := json.Unmarshal(result, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage sends text to a chat, paced by the client-side limiter.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := c.call(ctx, "sendMessage", map[string]any{
		"chat_id": chatID,
		"text":    text,
	})
	return err
}

package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a minimal Telegram Bot API client for pushing messages to
// customers. Only the methods the delivery path needs are implemented.
type Client struct {
	BaseURL string
	Token   string
	client  *http.Client
}

func NewClient(token string) *Client {
	return &Client{
		BaseURL: "https://api.telegram.org",
		Token:   token,
		client:  &http.Client{Timeout: 20 * time.Second},
	}
}

type sendMessageReq struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	if c.Token == "" {
		return fmt.Errorf("telegram: TELEGRAM_BOT_TOKEN not set")
	}
	body, _ := json.Marshal(sendMessageReq{ChatID: chatID, Text: text})
	url := fmt.Sprintf("%s/bot%s/sendMessage", c.BaseURL, c.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		if len(respBody) > 200 {
			respBody = respBody[:200]
		}
		return fmt.Errorf("telegram: sendMessage status %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

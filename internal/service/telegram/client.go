package telegram

import (
	"context"
	"fmt"
	"time"

	domsvc "CryptoPulse/internal/domain/service"
	xhttp "CryptoPulse/pkg/http"
)

// Client sends formatted alerts through the Telegram Bot API. Token and chat
// id come from the per-user settings, so one client serves every user.
type Client struct {
	apiBase string
	client  *xhttp.Client
}

func New(apiBase string, timeout time.Duration) *Client {
	if apiBase == "" {
		apiBase = "https://api.telegram.org"
	}
	return &Client{
		apiBase: apiBase,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type sendMessageReq struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// Send posts one message via sendMessage. The Bot API reports failures in the
// body with a 200 status, so the ok flag is checked as well.
func (c *Client) Send(ctx context.Context, token, chatID, text string) error {
	if token == "" || chatID == "" {
		return fmt.Errorf("telegram: missing credentials")
	}

	var resp apiResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     fmt.Sprintf("%s/bot%s/sendMessage", c.apiBase, token),
		Headers: map[string]string{"Content-Type": "application/json"},
		Body: sendMessageReq{
			ChatID:                chatID,
			Text:                  text,
			ParseMode:             "Markdown",
			DisableWebPagePreview: true,
		},
	}, &resp)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("telegram send: api error %d: %s", resp.ErrorCode, resp.Description)
	}
	return nil
}

var _ domsvc.AlertSender = (*Client)(nil)

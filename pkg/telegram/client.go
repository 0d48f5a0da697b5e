package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strconv"
	"time"
)

const (
	connectTimeout = 5 * time.Second
	requestTimeout = 10 * time.Second

	// MaxMessageLength is the Bot API limit for one text message.
	MaxMessageLength = 4096
)

// Client is a minimal Telegram Bot API client covering the three call shapes
// the bot needs: send text, delete message, upload document.
type Client struct {
	apiBase    string
	httpClient *http.Client
}

// NewClient creates a client for the given API base URL and bot token, e.g.
// NewClient("https://api.telegram.org", token).
func NewClient(baseURL, token string) *Client {
	return &Client{
		apiBase: fmt.Sprintf("%s/bot%s", baseURL, token),
		httpClient: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
			},
		},
	}
}

type sendMessagePayload struct {
	ChatId           int64  `json:"chat_id"`
	Text             string `json:"text"`
	ReplyToMessageId *int64 `json:"reply_to_message_id,omitempty"`
	ParseMode        string `json:"parse_mode,omitempty"`
}

// SendMessage posts a text message. A non-2xx response is returned as an
// error carrying the API body, so callers can react to formatting rejections.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, replyTo *int64, parseMode string) error {
	payload, err := json.Marshal(sendMessagePayload{
		ChatId:           chatID,
		Text:             text,
		ReplyToMessageId: replyTo,
		ParseMode:        parseMode,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/sendMessage", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram sendMessage: status %d: %s", res.StatusCode, string(body))
	}
	return nil
}

// DeleteMessage removes a message. Best-effort: the caller logs the error
// instead of failing its flow.
func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	payload := fmt.Sprintf(`{"chat_id":%d,"message_id":%d}`, chatID, messageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/deleteMessage", bytes.NewBufferString(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram deleteMessage: %w", err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram deleteMessage: status %d: %s", res.StatusCode, string(body))
	}
	return nil
}

// SendDocument uploads a file with a caption. All failures collapse into the
// boolean at this boundary; the archive flow only needs to know whether the
// upload was confirmed.
func (c *Client) SendDocument(ctx context.Context, chatID int64, filename string, content []byte, caption string) bool {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return false
	}
	if caption != "" {
		if err := writer.WriteField("caption", caption); err != nil {
			return false
		}
	}
	part, err := writer.CreateFormFile("document", filename)
	if err != nil {
		return false
	}
	if _, err := part.Write(content); err != nil {
		return false
	}
	if err := writer.Close(); err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/sendDocument", &buf)
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	res, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)

	return res.StatusCode == http.StatusOK
}

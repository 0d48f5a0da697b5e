package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/TheAfghanCode/telegram-ai-bot/internal/constant"
)

const (
	connectTimeout = 15 * time.Second
	requestTimeout = 40 * time.Second
)

// DefaultTools are the function declarations the bot always advertises,
// regardless of what the prompt template ships.
var DefaultTools = []*FunctionDeclaration{
	{
		Name:        constant.ToolSendMessageToUser,
		Description: "Send a text message to an arbitrary Telegram user or chat on behalf of the bot.",
		Parameters: &Schema{
			Type: "object",
			Properties: map[string]*Schema{
				"user_id": {Type: "integer", Description: "Numeric Telegram id of the recipient."},
				"message": {Type: "string", Description: "Text to deliver."},
			},
			Required: []string{"user_id", "message"},
		},
	},
	{
		Name:        constant.ToolDeleteChatHistory,
		Description: "Archive and clear the stored conversation history of the current chat.",
		Parameters:  &Schema{Type: "object"},
	},
}

type Client struct {
	apiKey     string
	endpoint   string
	template   *Template
	tools      []*Tool
	httpClient *http.Client
}

// NewClient builds a Gemini client bound to one model endpoint. The prompt
// template is loaded once at construction.
func NewClient(apiKey, baseURL, model, templatePath string) (*Client, error) {
	tpl, err := LoadTemplate(templatePath)
	if err != nil {
		return nil, err
	}
	return &Client{
		apiKey:   apiKey,
		endpoint: fmt.Sprintf("%s/v1beta/models/%s:generateContent", baseURL, model),
		template: tpl,
		tools:    mergeTools(tpl.Tools, DefaultTools),
		httpClient: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
			},
		},
	}, nil
}

// Generate sends the assembled context to the model and parses the reply.
// The context is: template preamble, then every global rule rendered as a
// user/model acknowledgement pair, then the prior turns, then the prompt.
func (c *Client) Generate(ctx context.Context, rules []string, history []*Content, prompt string) (*Reply, error) {
	contents := make([]*Content, 0, len(c.template.Contents)+2*len(rules)+len(history)+1)
	contents = append(contents, c.template.Contents...)
	for _, rule := range rules {
		contents = append(contents,
			NewTextContent(constant.ChatMessageRoleUser, "[Global Rule] "+rule),
			NewTextContent(constant.ChatMessageRoleModel, constant.GlobalRuleAck),
		)
	}
	contents = append(contents, history...)
	contents = append(contents, NewTextContent(constant.ChatMessageRoleUser, prompt))

	payload, err := json.Marshal(generateRequest{
		Contents: contents,
		Tools:    c.tools,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generation failed: status %d: %s", res.StatusCode, string(body))
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("generation failed: %w: %s", err, string(body))
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("generation failed: %s: %s", parsed.Error.Status, parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || parsed.Candidates[0].Content == nil {
		return nil, fmt.Errorf("generation failed: empty response: %s", string(body))
	}

	for _, part := range parsed.Candidates[0].Content.Parts {
		if part.FunctionCall != nil {
			return &Reply{ToolCall: part.FunctionCall}, nil
		}
		if part.Text != "" {
			return &Reply{Text: part.Text}, nil
		}
	}
	return nil, fmt.Errorf("generation failed: response has neither text nor tool call: %s", string(body))
}

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/cartwisp/recovery-gateway/pkg/logger"
)

var (
	ErrMissingCredentials = errors.New("provider credentials are not configured")
	ErrEmptyRecipient     = errors.New("recipient phone or message is empty")
)

const (
	messageTypeText  = "text"
	messageTypeImage = "image"
)

// SendRequest is the provider wire payload. Text messages carry the body in
// text, image messages in caption with the image in imageUrl.
type SendRequest struct {
	RequestType string `json:"requestType"`
	Token       string `json:"token"`
	From        string `json:"from"`
	To          string `json:"to"`
	MessageType string `json:"messageType"`
	Text        string `json:"text,omitempty"`
	Caption     string `json:"caption,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

type sendResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Solution string `json:"solution"`
	Data     struct {
		MessageID string `json:"messageId"`
	} `json:"data"`
}

// SendResult is the outcome of one delivery attempt. Success mirrors the
// provider's own flag; Message carries the provider's failure reason when
// Success is false.
type SendResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"message_id,omitempty"`
	Recipient string `json:"recipient"`
}

type Config struct {
	APIURL  string
	Token   string
	From    string
	Timeout time.Duration

	// DefaultCountryCode is the calling code assumed when the billing
	// country cannot be resolved.
	DefaultCountryCode string
}

// Client talks to the WhatsApp/SMS provider HTTP API.
type Client struct {
	config *Config
	client *fasthttp.Client
}

func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.APIURL == "" {
		return nil, errors.New("provider api url is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &Client{
		config: config,
		client: &fasthttp.Client{
			MaxConnsPerHost:     64,
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: time.Minute,
		},
	}, nil
}

// Send delivers one message. phone is formatted against the billing country
// before dispatch; an empty imageURL produces a text message. Credential
// problems fail fast without touching the network.
func (c *Client) Send(ctx context.Context, phone, countryISO, message, imageURL string) (*SendResult, error) {
	to := FormatPhone(phone, countryISO, c.config.DefaultCountryCode)
	if to == "" || message == "" {
		return nil, ErrEmptyRecipient
	}
	if c.config.Token == "" || c.config.From == "" {
		logger.Warn("send cancelled: provider credentials missing")
		return nil, ErrMissingCredentials
	}

	req := &SendRequest{
		RequestType: "POST",
		Token:       c.config.Token,
		From:        c.config.From,
		To:          to,
	}
	if imageURL != "" {
		req.MessageType = messageTypeImage
		req.ImageURL = imageURL
		req.Caption = message
	} else {
		req.MessageType = messageTypeText
		req.Text = message
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	respBody, err := c.doRequest(ctx, body)
	if err != nil {
		logger.Warn("provider request failed", "to", to, "error", err)
		return &SendResult{Success: false, Message: err.Error(), Recipient: to}, nil
	}

	var resp sendResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !resp.Success {
		reason := resp.Solution
		if reason == "" {
			reason = resp.Message
		}
		if reason == "" {
			reason = "unknown provider error"
		}
		logger.Warn("provider rejected message", "to", to, "reason", reason)
		return &SendResult{Success: false, Message: reason, Recipient: to}, nil
	}

	logger.Info("message sent", "to", to, "message_id", resp.Data.MessageID)
	return &SendResult{
		Success:   true,
		Message:   "sent",
		MessageID: resp.Data.MessageID,
		Recipient: to,
	}, nil
}

func (c *Client) doRequest(ctx context.Context, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.config.APIURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeout)
	}

	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	statusCode := resp.StatusCode()
	if statusCode != fasthttp.StatusOK && statusCode != fasthttp.StatusAccepted {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", statusCode, resp.Body())
	}

	result := make([]byte, len(resp.Body()))
	copy(result, resp.Body())
	return result, nil
}

package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Config carries the Cloud API credentials and endpoint.
type Config struct {
	BaseURL       string
	PhoneNumberID string
	AccessToken   string
	Timeout       time.Duration
}

// Client sends templated and free-text messages through the WhatsApp Cloud
// API. Both send modes return the provider-assigned message id (wamid) on
// success.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SendTemplate submits a templated message with body parameters in order.
func (c *Client) SendTemplate(ctx context.Context, to, template, language string, params []string) (string, error) {
	req := sendRequest{
		MessagingProduct: messagingProduct,
		To:               to,
		Type:             "template",
		Template: &templatePayload{
			Name:     template,
			Language: langPayload{Code: language},
		},
	}
	if len(params) > 0 {
		parameters := make([]parameter, 0, len(params))
		for _, p := range params {
			parameters = append(parameters, parameter{Type: "text", Text: p})
		}
		req.Template.Components = []component{{Type: "body", Parameters: parameters}}
	}
	return c.send(ctx, req)
}

// SendText submits a plain text message. Used as the fallback mode when the
// templated send is rejected.
func (c *Client) SendText(ctx context.Context, to, body string) (string, error) {
	return c.send(ctx, sendRequest{
		MessagingProduct: messagingProduct,
		To:               to,
		Type:             "text",
		Text:             &textPayload{Body: body},
	})
}

func (c *Client) send(ctx context.Context, payload sendRequest) (string, error) {
	if ctx == nil {
		return "", errors.New("context cannot be nil")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "whatsapp: encode request")
	}

	url := fmt.Sprintf("%s/%s/messages", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.PhoneNumberID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "whatsapp: build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", errors.Wrap(err, "whatsapp: request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Wrap(err, "whatsapp: read response")
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr errorResponse
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
			apiErr.Error.HTTPStatus = resp.StatusCode
			return "", &apiErr.Error
		}
		return "", errors.Errorf("whatsapp: unexpected status %d: %s", resp.StatusCode, string(data))
	}

	var out sendResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", errors.Wrap(err, "whatsapp: decode response")
	}
	if len(out.Messages) == 0 || out.Messages[0].ID == "" {
		return "", errors.New("whatsapp: response carries no message id")
	}
	return out.Messages[0].ID, nil
}

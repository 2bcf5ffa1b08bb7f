// Package imagen renders scene illustrations through the Imagen predict
// endpoint. Rendering never fails from the caller's point of view: any
// problem is downgraded to a deterministic placeholder image reference.
package imagen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	endpointFormat = "https://generativelanguage.googleapis.com/v1beta/models/%s:predict"

	// DefaultModel is the Imagen model used for scene images.
	DefaultModel = "imagen-3.0-generate-002"

	// promptSuffix keeps scene images in one visual register.
	promptSuffix = ", photorealistic, modern, vibrant, high-resolution photography"
)

// Client is an Imagen API client.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
	log        *logrus.Logger
}

// request is the predict request body.
type request struct {
	Instances  []instance `json:"instances"`
	Parameters parameters `json:"parameters"`
}

type instance struct {
	Prompt string `json:"prompt"`
}

type parameters struct {
	SampleCount int    `json:"sampleCount"`
	AspectRatio string `json:"aspectRatio"`
}

// response is the predict response body.
type response struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient creates an Imagen client.
func NewClient(apiKey, model string, log *logrus.Logger) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		apiKey: strings.TrimSpace(apiKey),
		model:  model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log: log,
	}
}

// Render returns an image reference for the prompt: a data URI on
// success, the deterministic fallback placeholder otherwise.
func (c *Client) Render(ctx context.Context, prompt string) string {
	start := time.Now()
	ref, err := c.render(ctx, prompt)
	if err != nil {
		c.log.WithError(err).Warn("image generation failed, using placeholder")
		return fallbackURL(prompt)
	}
	c.log.WithField("duration", time.Since(start)).Debug("image generated")
	return ref
}

func (c *Client) render(ctx context.Context, prompt string) (string, error) {
	req := request{
		Instances:  []instance{{Prompt: prompt + promptSuffix}},
		Parameters: parameters{SampleCount: 1, AspectRatio: "16:9"},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := fmt.Sprintf(endpointFormat, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var apiResp response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("API error: %s", apiResp.Error.Message)
	}
	if len(apiResp.Predictions) == 0 || apiResp.Predictions[0].BytesBase64Encoded == "" {
		return "", fmt.Errorf("empty response from API")
	}

	mime := apiResp.Predictions[0].MimeType
	if mime == "" {
		mime = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, apiResp.Predictions[0].BytesBase64Encoded), nil
}

// PendingURL is the placeholder shown while the real image is still
// being generated, seeded by the head of the prompt.
func PendingURL(prompt string) string {
	runes := []rune(prompt)
	if len(runes) > 10 {
		runes = runes[:10]
	}
	return placeholder(string(runes))
}

// fallbackURL is the placeholder substituted when generation fails,
// seeded by the whole prompt with whitespace removed.
func fallbackURL(prompt string) string {
	return placeholder(strings.Join(strings.Fields(prompt), ""))
}

func placeholder(seed string) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/1280/720", url.PathEscape(seed))
}

package paddle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/billingbridge/billingbridge/internal/config"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/logger"
	"github.com/billingbridge/billingbridge/internal/types"
)

const defaultBaseURL = "https://api.paddle.com"

// Provider implements both the catalog and runtime surfaces for Paddle
type Provider struct {
	baseURL       string
	apiKey        string
	webhookSecret string
	client        *retryablehttp.Client
	logger        *logger.Logger
}

// NewProvider creates a Paddle provider from configuration
func NewProvider(cfg config.PaddleConfig, logger *logger.Logger) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, ierr.NewError("paddle api key missing").
			WithHint("Paddle is enabled but no API key is configured").
			Mark(ierr.ErrMissingConfiguration)
	}
	if cfg.WebhookSecret == "" {
		return nil, ierr.NewError("paddle webhook secret missing").
			WithHint("Paddle is enabled but no webhook secret is configured").
			Mark(ierr.ErrMissingConfiguration)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.HTTPClient.Timeout = 30 * time.Second
	client.Logger = nil

	return &Provider{
		baseURL:       baseURL,
		apiKey:        cfg.APIKey,
		webhookSecret: cfg.WebhookSecret,
		client:        client,
		logger:        logger,
	}, nil
}

func (p *Provider) Name() types.ProviderType {
	return types.ProviderPaddle
}

// do performs a JSON request against the Paddle API and decodes the response
// envelope into out (when non-nil).
func (p *Provider) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return ierr.WithError(err).
				WithHint("Failed to encode Paddle request").
				Mark(ierr.ErrSystem)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to build Paddle request").
			Mark(ierr.ErrHTTPClient)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Billing provider unreachable").
			WithReportableDetails(map[string]any{
				"provider": types.ProviderPaddle,
				"path":     path,
			}).
			Mark(ierr.ErrProviderError)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to read Paddle response").
			Mark(ierr.ErrHTTPClient)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ierr.NewError("paddle object not found").
			WithHintf("Paddle returned 404 for %s", path).
			Mark(ierr.ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		// Raw provider bodies are logged for operators, never surfaced
		p.logger.Errorw("paddle api call failed",
			"path", path,
			"status", resp.StatusCode,
			"body", string(respBody),
		)
		return ierr.NewError(fmt.Sprintf("paddle api error: status %d", resp.StatusCode)).
			WithHint("Billing provider error").
			WithReportableDetails(map[string]any{
				"provider": types.ProviderPaddle,
				"path":     path,
				"status":   resp.StatusCode,
			}).
			Mark(ierr.ErrProviderError)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to decode Paddle response").
				Mark(ierr.ErrProviderError)
		}
	}
	return nil
}

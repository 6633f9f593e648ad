package riot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	statusEndpoint = "/lol/status/v4/platform-data"

	defaultValidationTimeout = 10 * time.Second
)

// ErrInvalidKey is returned by Check when the API rejects the key (401/403).
var ErrInvalidKey = errors.New("riot api key rejected")

// KeyValidator validates Riot API keys against the lightweight platform status
// endpoint. It runs once at startup, outside the client's rate windows.
type KeyValidator struct {
	httpClient *http.Client
	baseURL    string
}

// KeyValidatorOption configures a KeyValidator
type KeyValidatorOption func(*KeyValidator)

// WithBaseURL sets a custom base URL (useful for testing)
func WithBaseURL(url string) KeyValidatorOption {
	return func(v *KeyValidator) {
		v.baseURL = url
	}
}

// WithTimeout sets a custom timeout for validation requests
func WithTimeout(timeout time.Duration) KeyValidatorOption {
	return func(v *KeyValidator) {
		v.httpClient.Timeout = timeout
	}
}

// NewKeyValidator creates a validator for the given platform region.
func NewKeyValidator(region string, opts ...KeyValidatorOption) *KeyValidator {
	if region == "" {
		region = DefaultRegion
	}
	v := &KeyValidator{
		httpClient: &http.Client{Timeout: defaultValidationTimeout},
		baseURL:    PlatformURL(region),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateKey reports whether the key is accepted.
//   - (true, nil): valid
//   - (false, nil): rejected with 401/403
//   - (false, err): network or server failure, validity unknown
func (v *KeyValidator) ValidateKey(ctx context.Context, apiKey string) (bool, error) {
	if apiKey == "" {
		return false, fmt.Errorf("API key cannot be empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+statusEndpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Riot-Token", apiKey)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
}

// Check is ValidateKey folded into a single error: ErrInvalidKey for a rejected
// key, the transport error when validity could not be determined.
func (v *KeyValidator) Check(ctx context.Context, apiKey string) error {
	ok, err := v.ValidateKey(ctx, apiKey)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidKey
	}
	return nil
}

package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrAdminUnavailable is returned when no admin API client is configured.
var ErrAdminUnavailable = errors.New("identity admin API not configured")

// AdminClient talks to the identity platform's admin API. It is only used for
// custom-claim merges; all user management stays on the platform side.
type AdminClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewAdminClient returns an AdminClient for the platform admin API at baseURL,
// authenticating with token. timeout bounds each request.
func NewAdminClient(baseURL, token string, timeout time.Duration) *AdminClient {
	return &AdminClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// MergeCustomClaims PATCHes the user's custom claims. The platform applies the
// body additively: claims not named in the request are left untouched.
func (c *AdminClient) MergeCustomClaims(ctx context.Context, userID string, claims map[string]any) error {
	if userID == "" {
		return errors.New("user id is required")
	}
	body, err := json.Marshal(map[string]any{"customClaims": claims})
	if err != nil {
		return err
	}
	endpoint := c.baseURL + "/admin/users/" + url.PathEscape(userID) + "/claims"
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("identity admin API: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("identity admin API returned status %d", resp.StatusCode)
	}
	return nil
}

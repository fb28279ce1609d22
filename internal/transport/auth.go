package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/nvxtech/hidroweb-go/internal/observability"
)

// AuthError is a failed token authentication. It is terminal: bad
// credentials never improve across retries.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: HTTP %d: %s", e.StatusCode, e.Message)
}

// authToken returns the cached bearer token, authenticating when none is
// held. Concurrent logical requests share one token; the mutex makes the
// check-then-fetch atomic so only one authentication round trip happens.
func (c *Client) authToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, nil
	}

	token, err := c.authenticate(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	return token, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// authenticate exchanges credentials for a bearer token. The upstream takes
// them as Identificador/Senha headers on a GET.
func (c *Client) authenticate(ctx context.Context) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"/"+authPath, nil)
	if err != nil {
		return "", fmt.Errorf("create auth request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Identificador", c.user)
	req.Header.Set("Senha", c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.AuthRequestsTotal.WithLabelValues("error").Inc()
		return "", transient("auth request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transient("read auth response: %v", err)
	}

	observability.AuthRequestsTotal.WithLabelValues(observability.StatusLabel(resp.StatusCode)).Inc()

	if resp.StatusCode >= 500 {
		return "", transient("auth: HTTP %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &AuthError{StatusCode: resp.StatusCode, Message: upstreamMessage(body)}
	}

	var payload struct {
		Items struct {
			Token string `json:"tokenautenticacao"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", &AuthError{StatusCode: resp.StatusCode, Message: "malformed auth response"}
	}
	if payload.Items.Token == "" {
		return "", &AuthError{StatusCode: resp.StatusCode, Message: "token missing from auth response"}
	}

	c.logger.Debug("authenticated against upstream", zap.String("user", c.user))
	return payload.Items.Token, nil
}

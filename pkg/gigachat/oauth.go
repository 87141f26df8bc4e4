// Package gigachat holds the pieces of the GigaChat REST API that the
// gigago client does not cover: OAuth token issuing and a shared HTTP client.
package gigachat

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/micocomia/5902Group5/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultOAuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	DefaultBaseURL  = "https://gigachat.devices.sberbank.ru/api/v1"
)

// refreshMargin renews tokens slightly before they expire.
const refreshMargin = time.Minute

// NewHTTPClient returns a client honoring the configured TLS verification setting.
func NewHTTPClient(cfg *config.GigaChatConfig, timeout time.Duration) *http.Client {
	client := &http.Client{Timeout: timeout}
	if cfg.InsecureSkipVerify {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return client
}

// TokenSource issues and caches access tokens for direct REST calls.
type TokenSource struct {
	cfg        *config.GigaChatConfig
	httpClient *http.Client
	oauthURL   string
	logger     *zap.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	now       func() time.Time
}

func NewTokenSource(cfg *config.GigaChatConfig, httpClient *http.Client, logger *zap.Logger) *TokenSource {
	return &TokenSource{
		cfg:        cfg,
		httpClient: httpClient,
		oauthURL:   DefaultOAuthURL,
		logger:     logger,
		now:        time.Now,
	}
}

// WithOAuthURL points the source at a different OAuth endpoint.
func (s *TokenSource) WithOAuthURL(u string) *TokenSource {
	s.oauthURL = u
	return s
}

// Token returns a cached token, requesting a new one when it is missing or about to expire.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Add(refreshMargin).Before(s.expiresAt) {
		return s.token, nil
	}

	token, expiresAt, err := s.fetch(ctx)
	if err != nil {
		return "", err
	}
	s.token = token
	s.expiresAt = expiresAt
	return token, nil
}

// Invalidate drops the cached token, e.g. after a 401.
func (s *TokenSource) Invalidate() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

// fetch calls the OAuth endpoint. The API key is expected to be Base64-encoded already.
func (s *TokenSource) fetch(ctx context.Context) (string, time.Time, error) {
	rqUID := uuid.New().String()

	form := url.Values{}
	form.Set("scope", s.cfg.Scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.oauthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to create OAuth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", rqUID)
	req.Header.Set("Authorization", "Basic "+s.cfg.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to get access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		s.logger.Error("OAuth request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("response", string(body)),
			zap.String("rq_uid", rqUID),
		)
		return "", time.Time{}, fmt.Errorf("OAuth failed with status %d: %s", resp.StatusCode, string(body))
	}

	var oauthResp struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&oauthResp); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to decode OAuth response: %w", err)
	}
	if oauthResp.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("empty access token in OAuth response")
	}

	// expires_at is in milliseconds; tokens live 30 minutes when it is absent
	expiresAt := s.now().Add(30 * time.Minute)
	switch {
	case oauthResp.ExpiresAt > 0:
		expiresAt = time.UnixMilli(oauthResp.ExpiresAt)
	case oauthResp.ExpiresIn > 0:
		expiresAt = s.now().Add(time.Duration(oauthResp.ExpiresIn) * time.Second)
	}

	s.logger.Info("GigaChat access token obtained", zap.Time("expires_at", expiresAt))
	return oauthResp.AccessToken, expiresAt, nil
}

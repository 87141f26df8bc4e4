package gigachat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/micocomia/5902Group5/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTokenSource_CachesUntilExpiry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "Basic key", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("RqUID"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "GIGACHAT_API_PERS", r.PostForm.Get("scope"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": "tok", "expires_in": 1800}`))
	}))
	defer srv.Close()

	cfg := &config.GigaChatConfig{APIKey: "key", Scope: "GIGACHAT_API_PERS"}
	src := NewTokenSource(cfg, srv.Client(), zap.NewNop()).WithOAuthURL(srv.URL)

	for i := 0; i < 3; i++ {
		token, err := src.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok", token)
	}
	assert.EqualValues(t, 1, calls.Load())

	src.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestTokenSource_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	src := NewTokenSource(&config.GigaChatConfig{}, srv.Client(), zap.NewNop()).WithOAuthURL(srv.URL)
	_, err := src.Token(context.Background())
	assert.ErrorContains(t, err, "401")
}

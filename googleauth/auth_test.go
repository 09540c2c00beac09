package googleauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/minios-linux/sheetxml/settings"
)

// tokenEndpoint is a fake Google token endpoint recording the forms it saw.
type tokenEndpoint struct {
	mu    sync.Mutex
	forms []url.Values
}

func (e *tokenEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	e.mu.Lock()
	e.forms = append(e.forms, r.PostForm)
	e.mu.Unlock()

	resp := map[string]any{"token_type": "Bearer", "expires_in": 3600}
	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		resp["access_token"] = "fresh-access"
		resp["refresh_token"] = "fresh-refresh"
	case "refresh_token":
		resp["access_token"] = "refreshed-access"
	default:
		http.Error(w, "unsupported grant", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (e *tokenEndpoint) grants() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, f := range e.forms {
		out = append(out, f.Get("grant_type"))
	}
	return out
}

func (e *tokenEndpoint) lastForm() url.Values {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.forms) == 0 {
		return nil
	}
	return e.forms[len(e.forms)-1]
}

func newTestConfig(t *testing.T) (*oauth2.Config, *tokenEndpoint) {
	t.Helper()
	endpoint := &tokenEndpoint{}
	srv := httptest.NewServer(endpoint)
	t.Cleanup(srv.Close)

	return &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Scopes:       []string{Scope},
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://accounts.example.com/o/oauth2/auth",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}, endpoint
}

func noBrowser(t *testing.T) {
	t.Helper()
	old := openBrowser
	openBrowser = func(string) error { return nil }
	t.Cleanup(func() { openBrowser = old })
}

// approve simulates the browser redirect Google performs after consent.
func approve(t *testing.T, mutate func(q url.Values)) func(string) {
	return func(authURL string) {
		u, err := url.Parse(authURL)
		require.NoError(t, err)
		q := u.Query()
		require.Equal(t, "S256", q.Get("code_challenge_method"))
		require.Equal(t, "offline", q.Get("access_type"))
		require.Equal(t, Scope, q.Get("scope"))

		callback := url.Values{"code": {"auth-code"}, "state": {q.Get("state")}}
		if mutate != nil {
			mutate(callback)
		}
		go func() {
			resp, err := http.Get(q.Get("redirect_uri") + "?" + callback.Encode())
			if err == nil {
				resp.Body.Close()
			}
		}()
	}
}

func newStore(t *testing.T) *settings.Store {
	t.Helper()
	return &settings.Store{Path: filepath.Join(t.TempDir(), "token.json")}
}

func TestConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	secrets := `{"installed":{"client_id":"id.apps.googleusercontent.com","client_secret":"secret",
		"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token",
		"redirect_uris":["http://localhost"]}}`
	require.NoError(t, os.WriteFile(path, []byte(secrets), 0600))

	cfg, err := ConfigFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "id.apps.googleusercontent.com", cfg.ClientID)
	require.Equal(t, []string{Scope}, cfg.Scopes)

	_, err = ConfigFromFile(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoginFlow(t *testing.T) {
	noBrowser(t)
	cfg, endpoint := newTestConfig(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tok, err := LoginFlow(ctx, cfg, approve(t, nil))
	require.NoError(t, err)
	require.Equal(t, "fresh-access", tok.AccessToken)
	require.Equal(t, "fresh-refresh", tok.RefreshToken)

	require.Equal(t, []string{"authorization_code"}, endpoint.grants())
	form := endpoint.lastForm()
	require.Equal(t, "auth-code", form.Get("code"))
	require.NotEmpty(t, form.Get("code_verifier"))
	require.True(t, strings.HasPrefix(form.Get("redirect_uri"), "http://127.0.0.1:"))
	require.Empty(t, cfg.RedirectURL, "caller's config must not be modified")
}

func TestLoginFlow_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(q url.Values)
		wantErr error
		wantMsg string
	}{
		{"state mismatch", func(q url.Values) { q.Set("state", "forged") }, ErrStateMismatch, ""},
		{"missing code", func(q url.Values) { q.Del("code") }, ErrNoCode, ""},
		{"access denied", func(q url.Values) { q.Set("error", "access_denied") }, nil, "access_denied"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			noBrowser(t)
			cfg, endpoint := newTestConfig(t)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			_, err := LoginFlow(ctx, cfg, approve(t, tc.mutate))
			require.Error(t, err)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			}
			if tc.wantMsg != "" {
				require.ErrorContains(t, err, tc.wantMsg)
			}
			require.Empty(t, endpoint.grants(), "no code exchange on rejection")
		})
	}
}

func TestLoginFlow_Canceled(t *testing.T) {
	noBrowser(t)
	cfg, _ := newTestConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := LoginFlow(ctx, cfg, func(string) { cancel() })
	require.ErrorIs(t, err, context.Canceled)
}

func TestEnsureToken(t *testing.T) {
	t.Run("valid cached token is used as-is", func(t *testing.T) {
		cfg, endpoint := newTestConfig(t)
		store := newStore(t)
		require.NoError(t, store.Save(settings.Token{AccessToken: "cached", Expiry: time.Now().Add(time.Hour)}))

		tok, err := EnsureToken(context.Background(), cfg, store, nil)
		require.NoError(t, err)
		require.Equal(t, "cached", tok.AccessToken)
		require.Empty(t, endpoint.grants())
	})

	t.Run("expired token is refreshed and cached", func(t *testing.T) {
		cfg, endpoint := newTestConfig(t)
		store := newStore(t)
		require.NoError(t, store.Save(settings.Token{
			AccessToken:  "stale",
			RefreshToken: "keep-me",
			Expiry:       time.Now().Add(-time.Hour),
		}))

		tok, err := EnsureToken(context.Background(), cfg, store, nil)
		require.NoError(t, err)
		require.Equal(t, "refreshed-access", tok.AccessToken)
		require.Equal(t, []string{"refresh_token"}, endpoint.grants())

		saved, err := store.Load()
		require.NoError(t, err)
		require.Equal(t, "refreshed-access", saved.AccessToken)
		require.Equal(t, "keep-me", saved.RefreshToken)
	})

	t.Run("no cached token runs the login flow", func(t *testing.T) {
		noBrowser(t)
		cfg, endpoint := newTestConfig(t)
		store := newStore(t)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		tok, err := EnsureToken(ctx, cfg, store, approve(t, nil))
		require.NoError(t, err)
		require.Equal(t, "fresh-access", tok.AccessToken)
		require.Equal(t, []string{"authorization_code"}, endpoint.grants())

		saved, err := store.Load()
		require.NoError(t, err)
		require.Equal(t, "fresh-refresh", saved.RefreshToken)
	})

	t.Run("unreadable cache is terminal", func(t *testing.T) {
		cfg, _ := newTestConfig(t)
		store := newStore(t)
		require.NoError(t, os.WriteFile(store.Path, []byte(`{"version": 99}`), 0600))

		_, err := EnsureToken(context.Background(), cfg, store, nil)
		require.ErrorIs(t, err, settings.ErrUnsupportedVersion)
	})
}

func TestTokenSourcePersistsRefresh(t *testing.T) {
	cfg, _ := newTestConfig(t)
	store := newStore(t)

	stale := &oauth2.Token{AccessToken: "stale", RefreshToken: "r", Expiry: time.Now().Add(-time.Hour)}
	ts := TokenSource(context.Background(), cfg, store, stale)

	tok, err := ts.Token()
	require.NoError(t, err)
	require.Equal(t, "refreshed-access", tok.AccessToken)

	saved, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "refreshed-access", saved.AccessToken)
}

func TestStatus(t *testing.T) {
	store := newStore(t)
	require.Equal(t, "not authenticated", Status(store))

	require.NoError(t, store.Save(settings.Token{
		AccessToken:  "abcdefghijklmnop",
		RefreshToken: "r",
		Expiry:       time.Now().Add(-time.Hour),
	}))
	require.Equal(t, "authenticated (token: abcd...mnop) [expired, will auto-refresh]", Status(store))

	require.NoError(t, store.Save(settings.Token{AccessToken: "abcdefghijklmnop", Expiry: time.Now().Add(-time.Hour)}))
	require.Contains(t, Status(store), "re-login required")
}

// Package googleauth obtains an OAuth2 token for read-only Google Sheets
// access, without requiring any external CLI tools.
//
// The flow uses the OAuth 2.0 Authorization Code Grant with PKCE for an
// installed application:
//  1. Start a local HTTP server on a random loopback port
//  2. Open the browser to Google's authorization URL
//  3. User authorizes and Google redirects back to the local server
//  4. Exchange the authorization code for access + refresh tokens
//
// The OAuth client comes from the client secrets JSON downloaded from the
// Google Cloud console. Tokens are cached through the settings package.
package googleauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"

	"github.com/minios-linux/sheetxml/settings"
)

// Scope is the only scope requested: read-only access to spreadsheets.
const Scope = sheets.SpreadsheetsReadonlyScope

var (
	// ErrStateMismatch is returned when the callback state does not match
	// the one sent with the authorization request.
	ErrStateMismatch = errors.New("OAuth state mismatch (possible CSRF attack)")
	// ErrNoCode is returned when the callback carries no authorization code.
	ErrNoCode = errors.New("no authorization code received")
)

// ConfigFromFile reads an installed-app client secrets file and returns the
// OAuth2 configuration for the spreadsheets scope.
func ConfigFromFile(path string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading client secrets: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, Scope)
	if err != nil {
		return nil, fmt.Errorf("parsing client secrets %s: %w", path, err)
	}
	return cfg, nil
}

// ---------------------------------------------------------------------------
// Authorization Code Flow (browser-based)
// ---------------------------------------------------------------------------

// openBrowser is replaced in tests.
var openBrowser = func(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

type authResult struct {
	code string
	err  error
}

// LoginFlow runs the interactive authorization code flow and returns the
// exchanged token. onPrompt receives the authorization URL so the caller
// can display it in case the browser doesn't open.
func LoginFlow(ctx context.Context, cfg *oauth2.Config, onPrompt func(authURL string)) (*oauth2.Token, error) {
	state, err := randomState()
	if err != nil {
		return nil, err
	}
	verifier := oauth2.GenerateVerifier()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("starting local server: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	flow := *cfg
	flow.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d/", port)

	authURL := flow.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("prompt", "consent"), // always return a refresh token
	)

	resultCh := make(chan authResult, 1)
	server := &http.Server{
		Handler:           callbackHandler(state, resultCh),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			deliver(resultCh, authResult{err: fmt.Errorf("callback server error: %w", err)})
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if onPrompt != nil {
		onPrompt(authURL)
	}
	_ = openBrowser(authURL)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-resultCh:
		if result.err != nil {
			return nil, result.err
		}
		tok, err := flow.Exchange(ctx, result.code, oauth2.VerifierOption(verifier))
		if err != nil {
			return nil, fmt.Errorf("exchanging code for token: %w", err)
		}
		return tok, nil
	}
}

// callbackHandler validates the redirect from Google and forwards the code.
func callbackHandler(state string, resultCh chan<- authResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		if errCode := query.Get("error"); errCode != "" {
			errDesc := query.Get("error_description")
			if errDesc == "" {
				errDesc = "No additional details provided"
			}
			http.Error(w, "Authentication failed. You can close this window.", http.StatusBadRequest)
			deliver(resultCh, authResult{err: fmt.Errorf("google OAuth error: %s. %s", errCode, errDesc)})
			return
		}

		if query.Get("state") != state {
			http.Error(w, "Authentication failed. You can close this window.", http.StatusBadRequest)
			deliver(resultCh, authResult{err: ErrStateMismatch})
			return
		}

		code := query.Get("code")
		if code == "" {
			http.Error(w, "Authentication failed. You can close this window.", http.StatusBadRequest)
			deliver(resultCh, authResult{err: ErrNoCode})
			return
		}

		fmt.Fprintln(w, "Authentication complete. You can close this window.")
		deliver(resultCh, authResult{code: code})
	})
}

// deliver hands over the first result; later callbacks are dropped.
func deliver(ch chan<- authResult, r authResult) {
	select {
	case ch <- r:
	default:
	}
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ---------------------------------------------------------------------------
// EnsureToken: cached token, refresh or interactive login
// ---------------------------------------------------------------------------

// EnsureToken returns a usable token:
//  1. no cached token: interactive login, then cache it
//  2. cached and valid: use it
//  3. expired with a refresh token: refresh once, then cache it
//  4. expired without a refresh token: interactive login, then cache it
//
// Failures are returned as-is; nothing is retried.
func EnsureToken(ctx context.Context, cfg *oauth2.Config, store *settings.Store, onPrompt func(authURL string)) (*oauth2.Token, error) {
	cached, err := store.Load()
	if errors.Is(err, settings.ErrNoToken) {
		return login(ctx, cfg, store, onPrompt)
	}
	if err != nil {
		return nil, fmt.Errorf("loading cached token: %w", err)
	}

	tok := cached.OAuth2()
	if tok.Valid() {
		return tok, nil
	}
	if tok.RefreshToken == "" {
		return login(ctx, cfg, store, onPrompt)
	}

	fresh, err := cfg.TokenSource(ctx, tok).Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}
	if err := store.Save(settings.FromOAuth2(fresh)); err != nil {
		return nil, fmt.Errorf("caching refreshed token: %w", err)
	}
	return fresh, nil
}

func login(ctx context.Context, cfg *oauth2.Config, store *settings.Store, onPrompt func(string)) (*oauth2.Token, error) {
	tok, err := LoginFlow(ctx, cfg, onPrompt)
	if err != nil {
		return nil, err
	}
	if err := store.Save(settings.FromOAuth2(tok)); err != nil {
		return nil, fmt.Errorf("token obtained but failed to save: %w", err)
	}
	return tok, nil
}

// ---------------------------------------------------------------------------
// Token source that keeps the cache current
// ---------------------------------------------------------------------------

type persistingSource struct {
	src   oauth2.TokenSource
	store *settings.Store

	mu   sync.Mutex
	last string
}

// TokenSource returns a source that refreshes tok when needed and writes
// every new access token back to store.
func TokenSource(ctx context.Context, cfg *oauth2.Config, store *settings.Store, tok *oauth2.Token) oauth2.TokenSource {
	return &persistingSource{
		src:   cfg.TokenSource(ctx, tok),
		store: store,
		last:  tok.AccessToken,
	}
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.src.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		if err := p.store.Save(settings.FromOAuth2(tok)); err != nil {
			return nil, fmt.Errorf("caching refreshed token: %w", err)
		}
		p.last = tok.AccessToken
	}
	return tok, nil
}

// ---------------------------------------------------------------------------
// Status
// ---------------------------------------------------------------------------

// Status returns a human-readable status of the cached token.
func Status(store *settings.Store) string {
	tok, err := store.Load()
	if errors.Is(err, settings.ErrNoToken) {
		return "not authenticated"
	}
	if err != nil {
		return fmt.Sprintf("unreadable token cache: %v", err)
	}

	status := fmt.Sprintf("authenticated (token: %s)", settings.MaskToken(tok.AccessToken))
	if tok.Expired(time.Now()) {
		if tok.RefreshToken != "" {
			status += " [expired, will auto-refresh]"
		} else {
			status += " [expired, re-login required]"
		}
	} else if !tok.Expiry.IsZero() {
		status += fmt.Sprintf(" [expires %s]", tok.Expiry.Local().Format(time.DateTime))
	}
	return status
}

package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"cartellino/internal/config"
)

// ReadonlyScope grants read access to file metadata and content.
const ReadonlyScope = "https://www.googleapis.com/auth/drive.readonly"

// ErrNoToken is returned when no cached token exists yet.
var ErrNoToken = errors.New("no drive token: run `cartellino auth` first")

// Authenticator runs the OAuth authorization code flow against Google and
// keeps the resulting token in a JSON cache file.
type Authenticator struct {
	oauth        *oauth2.Config
	tokenPath    string
	redirectPort int
	prompt       func(authURL string) error
}

// AuthOption configures an Authenticator.
type AuthOption func(*Authenticator)

// WithPrompt replaces the function that shows the consent URL to the user.
func WithPrompt(fn func(authURL string) error) AuthOption {
	return func(a *Authenticator) {
		a.prompt = fn
	}
}

// NewAuthenticator creates an Authenticator from the Drive settings.
func NewAuthenticator(cfg *config.DriveConfig, opts ...AuthOption) *Authenticator {
	a := &Authenticator{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       []string{ReadonlyScope},
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		tokenPath:    cfg.TokenPath,
		redirectPort: cfg.RedirectPort,
		prompt:       printPrompt(os.Stdout),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func printPrompt(w io.Writer) func(string) error {
	return func(authURL string) error {
		_, err := fmt.Fprintf(w, "\nOpen this URL in a browser to authorize Drive access:\n  %s\n\n", authURL)
		return err
	}
}

// Authorize runs the loopback authorization code flow: it listens on
// 127.0.0.1, shows the consent URL, waits for the redirect carrying the
// code, exchanges it and stores the token.
func (a *Authenticator) Authorize(ctx context.Context) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", a.redirectPort))
	if err != nil {
		return nil, fmt.Errorf("starting redirect listener: %w", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port

	cfg := *a.oauth
	cfg.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d/", port)
	state := uuid.NewString()

	type callback struct {
		code string
		err  error
	}
	results := make(chan callback, 1)

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var cb callback
		switch {
		case q.Get("state") != state:
			cb.err = errors.New("oauth state mismatch")
		case q.Get("error") != "":
			cb.err = fmt.Errorf("authorization denied: %s", q.Get("error"))
		case q.Get("code") == "":
			cb.err = errors.New("authorization response has no code")
		default:
			cb.code = q.Get("code")
		}
		if cb.err != nil {
			http.Error(w, cb.err.Error(), http.StatusBadRequest)
		} else {
			_, _ = io.WriteString(w, "Authorization complete. You can close this window.\n")
		}
		select {
		case results <- cb:
		default:
		}
	})}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("drive.Authorize: redirect server: %v", err)
		}
	}()
	defer func() { _ = srv.Close() }()

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	if err := a.prompt(authURL); err != nil {
		return nil, fmt.Errorf("showing consent url: %w", err)
	}

	var cb callback
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case cb = <-results:
	}
	if cb.err != nil {
		return nil, cb.err
	}

	tok, err := cfg.Exchange(ctx, cb.code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	if err := a.saveToken(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// HTTPClient returns a client that authorizes requests with the cached
// token, refreshing it when expired and persisting refreshed tokens.
func (a *Authenticator) HTTPClient(ctx context.Context) (*http.Client, error) {
	tok, err := a.loadToken()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, ErrNoToken
	}
	ts := a.oauth.TokenSource(ctx, tok)
	return oauth2.NewClient(ctx, &savingTokenSource{ts: ts, auth: a, last: tok.AccessToken}), nil
}

// loadToken loads a previously saved token. A missing file is not an error.
func (a *Authenticator) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(a.tokenPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("corrupt token file (delete %s to re-authenticate): %w", a.tokenPath, err)
	}
	return &tok, nil
}

// saveToken writes the token atomically with owner-only permissions.
func (a *Authenticator) saveToken(tok *oauth2.Token) error {
	if dir := filepath.Dir(a.tokenPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating token directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling token: %w", err)
	}
	tmpPath := a.tokenPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmpPath, a.tokenPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving token file: %w", err)
	}
	return nil
}

// savingTokenSource persists tokens whenever the wrapped source refreshes.
type savingTokenSource struct {
	ts   oauth2.TokenSource
	auth *Authenticator
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.ts.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		if err := s.auth.saveToken(tok); err != nil {
			log.Printf("drive.savingTokenSource: could not save refreshed token: %v", err)
		}
		s.last = tok.AccessToken
	}
	return tok, nil
}

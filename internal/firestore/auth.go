package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/Tiliavir/trivial-timesheet/internal/config"
)

// Scope grants read and write access to Firestore.
const Scope = "https://www.googleapis.com/auth/datastore"

// ErrNotLoggedIn is returned when no token file exists yet.
var ErrNotLoggedIn = errors.New("not logged in to firestore; run `tts remote login`")

// OAuthConfig builds the oauth2 client configuration from cfg.
func OAuthConfig(cfg config.FirestoreConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{Scope},
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.AuthURL,
			TokenURL: cfg.TokenURL,
		},
	}
}

// LoadToken reads a token saved by SaveToken. A missing file yields nil, nil.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("corrupt token file (delete %s to re-authenticate): %w", path, err)
	}
	return &tok, nil
}

// SaveToken writes tok to path atomically with owner-only permissions.
func SaveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating auth directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling token: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving token file: %w", err)
	}
	return nil
}

// savingTokenSource persists every token it hands out, so refreshed tokens
// survive the process.
type savingTokenSource struct {
	ts     oauth2.TokenSource
	path   string
	logger *slog.Logger
	last   string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.ts.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		if err := SaveToken(s.path, tok); err != nil {
			s.logger.Warn("could not save refreshed token", "err", err)
		}
		s.last = tok.AccessToken
	}
	return tok, nil
}

// emulatorTransport adds the bearer token the Firestore emulator accepts
// as an admin credential.
type emulatorTransport struct{}

func (emulatorTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("Authorization", "Bearer owner")
	return http.DefaultTransport.RoundTrip(r)
}

// NewClientFromConfig returns a Client for cfg. With an emulator host it
// talks plain HTTP without OAuth; otherwise it needs a saved token.
func NewClientFromConfig(ctx context.Context, cfg config.FirestoreConfig, logger *slog.Logger) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("firestore.project_id is not configured")
	}
	if cfg.EmulatorHost != "" {
		hc := &http.Client{Transport: emulatorTransport{}}
		return NewClient(hc, "http://"+cfg.EmulatorHost+"/v1", cfg.ProjectID, cfg.Database), nil
	}

	tok, err := LoadToken(cfg.TokenFile)
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, ErrNotLoggedIn
	}
	ts := &savingTokenSource{
		ts:     OAuthConfig(cfg).TokenSource(ctx, tok),
		path:   cfg.TokenFile,
		logger: logger,
		last:   tok.AccessToken,
	}
	return NewClient(oauth2.NewClient(ctx, ts), "", cfg.ProjectID, cfg.Database), nil
}

// Login runs the authorization code flow with PKCE against a loopback
// redirect and saves the resulting token. The authorization URL is printed
// to out for the user to open.
func Login(ctx context.Context, cfg config.FirestoreConfig, out io.Writer) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("starting callback listener: %w", err)
	}
	oc := OAuthConfig(cfg)
	oc.RedirectURL = "http://" + ln.Addr().String() + "/callback"

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	type result struct {
		code string
		err  error
	}
	results := make(chan result, 1)
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		res := result{code: q.Get("code")}
		if e := q.Get("error"); e != "" {
			res = result{err: fmt.Errorf("authorization denied: %s", e)}
		}
		select {
		case results <- res:
		default:
		}
		fmt.Fprintln(w, "You can close this window and return to the terminal.")
	})}
	go srv.Serve(ln)
	defer srv.Close()

	fmt.Fprintln(out)
	fmt.Fprintln(out, "To sign in, open this page in a web browser:")
	fmt.Fprintf(out, "  %s\n", oc.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier)))
	fmt.Fprintln(out)

	var res result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-results:
	}
	if res.err != nil {
		return nil, res.err
	}

	tok, err := oc.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	if err := SaveToken(cfg.TokenFile, tok); err != nil {
		return nil, err
	}
	return tok, nil
}

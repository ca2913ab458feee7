package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/foodfriend/foodfriend/internal/utils"
	"github.com/google/uuid"
)

// Provider runs the identity provider's OAuth flow. The provider redirects
// the browser to a loopback callback carrying the session token.
type Provider struct {
	AuthURL string
	// Secret verifies returned tokens; see ParseToken.
	Secret string
	// Listen is the callback address. Defaults to 127.0.0.1:0.
	Listen string
	// Open shows the sign-in URL to the user. Nil prints it to Out.
	Open func(signInURL string) error
	Out  io.Writer
}

type callbackResult struct {
	session *Session
	err     error
}

// SignIn blocks until the browser comes back to the callback or ctx ends.
func (p *Provider) SignIn(ctx context.Context) (*Session, error) {
	if p.AuthURL == "" {
		return nil, fmt.Errorf("no sign-in URL configured (set auth.url)")
	}
	authURL, err := url.Parse(p.AuthURL)
	if err != nil {
		return nil, fmt.Errorf("bad auth.url: %w", err)
	}

	listen := p.Listen
	if listen == "" {
		listen = "127.0.0.1:0"
	}
	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return nil, fmt.Errorf("listen for sign-in callback: %w", err)
	}

	state := uuid.NewString()
	redirect := fmt.Sprintf("http://%s/callback", ln.Addr().String())
	results := make(chan callbackResult, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res callbackResult
		switch {
		case q.Get("state") != state:
			res.err = fmt.Errorf("sign-in callback state mismatch")
		case q.Get("error") != "":
			res.err = fmt.Errorf("sign-in failed: %s", q.Get("error"))
		default:
			res.session, res.err = ParseToken(q.Get("token"), p.Secret, time.Now())
		}
		if res.err != nil {
			http.Error(w, "Sign-in failed. Return to the terminal.", http.StatusBadRequest)
		} else {
			fmt.Fprintln(w, "Signed in to foodfriend. You can close this tab.")
		}
		select {
		case results <- res:
		default:
		}
	})
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Log.Warnf("sign-in callback server: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	q := authURL.Query()
	q.Set("redirect_uri", redirect)
	q.Set("state", state)
	authURL.RawQuery = q.Encode()

	if p.Open != nil {
		if err := p.Open(authURL.String()); err != nil {
			return nil, err
		}
	} else if p.Out != nil {
		fmt.Fprintf(p.Out, "Open this URL in your browser to sign in:\n\n  %s\n\n", authURL.String())
	}

	select {
	case res := <-results:
		return res.session, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

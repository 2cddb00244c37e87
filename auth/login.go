package auth

import (
	"context"
	"errors"
	"fmt"

	"course-middleware/config"

	cv "github.com/nirasan/go-oauth-pkce-code-verifier"
	"github.com/thanhpk/randstr"
	"golang.org/x/oauth2"
)

var ErrStateMismatch = errors.New("oauth state mismatch")

// LoginAttempt is the per-browser state of one authorization code flow. It
// travels in short lived cookies between /auth/login and the callback.
type LoginAttempt struct {
	State    string
	Verifier string
	URL      string
}

// NewOauthConfig builds the oauth2 config for the FusionAuth application.
func NewOauthConfig(conf config.Config) *oauth2.Config {
	return &oauth2.Config{
		RedirectURL:  conf.OauthRedirectURL(),
		ClientID:     conf.FusionAuth.OauthClientID,
		ClientSecret: conf.FusionAuth.OauthClientSecret,
		Scopes:       []string{"openid", "offline_access"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   fmt.Sprintf("%v/oauth2/authorize", conf.FusionAuth.PublicHost),
			TokenURL:  fmt.Sprintf("%v/oauth2/token", conf.FusionAuth.Host),
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// StartLogin generates a fresh state and pkce verifier and the authorize
// url that carries them.
func StartLogin(oc *oauth2.Config) (LoginAttempt, error) {
	codeVerif, err := cv.CreateCodeVerifier()
	if err != nil {
		return LoginAttempt{}, fmt.Errorf("failed to initialize code verifier: %w", err)
	}
	state := randstr.Hex(16)

	return LoginAttempt{
		State:    state,
		Verifier: codeVerif.String(),
		URL: oc.AuthCodeURL(
			state,
			oauth2.SetAuthURLParam("response_type", "code"),
			oauth2.SetAuthURLParam("code_challenge", codeVerif.CodeChallengeS256()),
			oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		),
	}, nil
}

// FinishLogin checks the returned state against the attempt and exchanges
// the code for tokens.
func FinishLogin(ctx context.Context, oc *oauth2.Config, attempt LoginAttempt, state, code string) (*oauth2.Token, error) {
	if attempt.State == "" || state != attempt.State {
		return nil, ErrStateMismatch
	}
	if code == "" {
		return nil, fmt.Errorf("missing authorization code")
	}
	tok, err := oc.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", attempt.Verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return tok, nil
}

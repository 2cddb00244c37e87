package auth

import (
	"context"
	"fmt"

	"course-middleware/models"
	"course-middleware/observer"

	"golang.org/x/oauth2"
)

// UserReader resolves an access token to the account behind it.
type UserReader interface {
	UserByJWT(jwt string) (models.Account, error)
}

// TokenRefresher obtains a brand new access token through the refresh
// grant and reads the entitlement of the account it belongs to.
type TokenRefresher struct {
	Oauth        *oauth2.Config
	Users        UserReader
	RefreshToken string
}

func (t *TokenRefresher) Refresh(ctx context.Context) (observer.Session, error) {
	// an empty access token is never valid, so this always hits the token
	// endpoint
	tok, err := t.Oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: t.RefreshToken}).Token()
	if err != nil {
		return observer.Session{}, fmt.Errorf("failed to refresh token: %w", err)
	}
	if tok.RefreshToken != "" {
		t.RefreshToken = tok.RefreshToken
	}

	acct, err := t.Users.UserByJWT(tok.AccessToken)
	if err != nil {
		return observer.Session{}, fmt.Errorf("failed to read user for refreshed token: %w", err)
	}

	return observer.Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: t.RefreshToken,
		IsPro:        acct.IsPro(),
	}, nil
}

// JWTRefresher re-reads the account behind an access token that is still
// valid. Used when the browser has no refresh token.
type JWTRefresher struct {
	Users UserReader
	JWT   string
}

func (j *JWTRefresher) Refresh(ctx context.Context) (observer.Session, error) {
	acct, err := j.Users.UserByJWT(j.JWT)
	if err != nil {
		return observer.Session{}, err
	}
	return observer.Session{AccessToken: j.JWT, IsPro: acct.IsPro()}, nil
}

package auth

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"course-middleware/config"
	"course-middleware/models"

	"github.com/FusionAuth/go-client/pkg/fusionauth"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// fusionAuthAPI is the subset of *fusionauth.FusionAuthClient used by this
// package.
type fusionAuthAPI interface {
	RetrieveUserByEmail(email string) (*fusionauth.UserResponse, *fusionauth.Errors, error)
	RetrieveUserUsingJWT(encodedJWT string) (*fusionauth.UserResponse, *fusionauth.Errors, error)
	PatchUser(userId string, request map[string]interface{}) (*fusionauth.UserResponse, *fusionauth.Errors, error)
}

// Directory looks up and updates accounts in FusionAuth.
type Directory struct {
	api fusionAuthAPI
}

// NewFusionAuthClient builds the api client the same way for every caller.
func NewFusionAuthClient(conf config.Config) (*fusionauth.FusionAuthClient, error) {
	faURL, err := url.Parse(conf.FusionAuth.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fusionauth url: %w", err)
	}

	// http client with custom options for usage with fusionauth
	hc := &http.Client{
		Timeout: time.Second * 10,
	}

	return fusionauth.NewClient(hc, faURL, conf.FusionAuth.APIKey), nil
}

func NewDirectory(client *fusionauth.FusionAuthClient) *Directory {
	return &Directory{api: client}
}

// FindUserByEmail returns the account whose stored email equals email
// exactly. FusionAuth matches emails case-insensitively, so a hit with
// different casing is reported as ErrUserNotFound.
func (d *Directory) FindUserByEmail(email string) (models.Account, error) {
	resp, faErrs, err := d.api.RetrieveUserByEmail(email)
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to retrieve user by email: %w", err)
	}
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return models.Account{}, ErrUserNotFound
	}
	if faErrs != nil {
		return models.Account{}, fmt.Errorf("fusionauth rejected user lookup: %+v", *faErrs)
	}
	if resp == nil || resp.User.Email != email {
		return models.Account{}, ErrUserNotFound
	}

	return accountFromUser(resp.User), nil
}

// UpdateUserData replaces the user data of an account with data. The
// caller is responsible for merging with what was read beforehand.
func (d *Directory) UpdateUserData(userID string, data map[string]interface{}) error {
	resp, faErrs, err := d.api.PatchUser(userID, map[string]interface{}{
		"user": map[string]interface{}{
			"data": data,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to patch user %v: %w", userID, err)
	}
	if faErrs != nil {
		return fmt.Errorf("fusionauth rejected patch for user %v: %+v", userID, *faErrs)
	}
	if resp != nil && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return fmt.Errorf("fusionauth patch for user %v returned status %v", userID, resp.StatusCode)
	}
	return nil
}

// UserByJWT resolves an access token to its account.
func (d *Directory) UserByJWT(jwt string) (models.Account, error) {
	if jwt == "" {
		return models.Account{}, ErrUnauthorized
	}
	resp, faErrs, err := d.api.RetrieveUserUsingJWT(jwt)
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to retrieve user by jwt: %w", err)
	}
	if resp == nil || resp.StatusCode == http.StatusUnauthorized || faErrs != nil || resp.User.Id == "" {
		return models.Account{}, ErrUnauthorized
	}
	return accountFromUser(resp.User), nil
}

func accountFromUser(user fusionauth.User) models.Account {
	data := map[string]interface{}{}
	for k, v := range user.Data {
		data[k] = v
	}
	return models.Account{
		ID:    user.Id,
		Email: user.Email,
		Data:  data,
	}
}

package routes

import (
	"log"
	"net/http"

	"course-middleware/auth"
	"course-middleware/helpers"
	"course-middleware/models"

	"github.com/gin-gonic/gin"
)

const (
	oauthStateCookie    = "course_oauth_state"
	oauthVerifierCookie = "course_oauth_verifier"
	loginCookieMaxAge   = 600
)

// Login sends the browser to the identity provider, unless it already
// holds a valid session.
func (h *Handlers) Login(c *gin.Context) {
	jwt := h.GetJWTFromGin(c)
	if jwt != "" {
		acct, err := h.Users.UserByJWT(jwt)
		if err == nil && acct.ID != "" {
			c.Data(http.StatusOK, "text/plain", []byte("already logged in"))
			return
		}
	}

	attempt, err := auth.StartLogin(h.Oauth)
	if err != nil {
		log.Printf("[%v] login: %v", helpers.GetRequestID(c), err.Error())
		helpers.Simple500(c)
		return
	}
	h.setCookie(c, oauthStateCookie, attempt.State, loginCookieMaxAge)
	h.setCookie(c, oauthVerifierCookie, attempt.Verifier, loginCookieMaxAge)

	c.Redirect(http.StatusFound, attempt.URL)
}

func (h *Handlers) OauthCallback(c *gin.Context) {
	attempt := auth.LoginAttempt{}
	attempt.State, _ = c.Cookie(oauthStateCookie)
	attempt.Verifier, _ = c.Cookie(oauthVerifierCookie)

	// the attempt is single use whatever the outcome
	h.setCookie(c, oauthStateCookie, "", -1)
	h.setCookie(c, oauthVerifierCookie, "", -1)

	tok, err := auth.FinishLogin(c.Request.Context(), h.Oauth, attempt, c.Query("state"), c.Query("code"))
	if err != nil {
		log.Printf("[%v] err login: %v", helpers.GetRequestID(c), err.Error())
		c.Data(http.StatusForbidden, "text/plain", []byte("unauthorized"))
		return
	}

	h.setSession(c, tok.AccessToken, tok.RefreshToken)
	c.Redirect(http.StatusFound, h.Conf.FusionAuth.AuthCallbackRedirectURL)
}

// LoggedIn allows the frontend to quickly check if the user is logged in
// and whether they hold the pro entitlement
func (h *Handlers) LoggedIn(c *gin.Context) {
	jwt := h.GetJWTFromGin(c)
	resp := models.LoggedInResponse{}

	if jwt == "" {
		c.JSON(http.StatusOK, resp)
		return
	}

	acct, err := h.Users.UserByJWT(jwt)
	if err != nil {
		log.Printf("[%v] loggedin: couldn't get user: %v", helpers.GetRequestID(c), err.Error())
		c.JSON(http.StatusOK, resp)
		return
	}

	resp.LoggedIn = true
	resp.UserID = acct.ID
	resp.UserEmail = acct.Email
	resp.IsPro = acct.IsPro()

	c.JSON(http.StatusOK, resp)
}

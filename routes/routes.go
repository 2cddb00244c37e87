package routes

import (
	"context"
	"net/http"
	"strings"

	"course-middleware/auth"
	"course-middleware/config"
	"course-middleware/course"
	"course-middleware/helpers"
	"course-middleware/models"
	"course-middleware/observer"
	"course-middleware/payments"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

// CheckoutIssuer creates hosted checkout sessions.
type CheckoutIssuer interface {
	CreateCheckoutSession(req models.CheckoutRequest) (string, error)
}

// WebhookProcessor runs one raw stripe delivery to completion.
type WebhookProcessor interface {
	Process(payload []byte, signature string) payments.Result
}

// ProgressStore persists per-user course progress.
type ProgressStore interface {
	GetProgress(ctx context.Context, userID string) (models.Progress, error)
	SetProgress(ctx context.Context, userID string, update models.ProgressUpdate) error
}

// EntitlementAwaiter waits for the paid entitlement after checkout.
type EntitlementAwaiter interface {
	Await(ctx context.Context, r observer.Refresher) observer.Outcome
}

// Handlers holds everything the http routes need. Each field is an
// interface or plain value so tests can swap in fakes.
type Handlers struct {
	Conf     config.Config
	Issuer   CheckoutIssuer
	Webhook  WebhookProcessor
	Users    auth.UserReader
	Progress ProgressStore
	Observer EntitlementAwaiter
	Oauth    *oauth2.Config
	Gate     course.Gate
}

// Register mounts all routes on r.
func (h *Handlers) Register(r *gin.Engine) {
	r.HandleMethodNotAllowed = true
	r.NoMethod(helpers.Simple405)
	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			helpers.Simple404(c)
			return
		}
		c.Data(http.StatusNotFound, "text/plain", []byte("not found"))
	})

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	api := r.Group("/api")
	api.POST("/create-checkout-session", h.CreateCheckoutSession)
	api.POST("/webhooks/stripe", h.StripeWebhook)
	api.GET("/progress", h.GetProgress)
	api.POST("/progress", h.PostProgress)
	api.GET("/access/:weekId", h.Access)
	api.GET("/products", h.Products)

	r.GET("/payment", h.Payment)

	a := r.Group("/auth")
	a.GET("/login", h.Login)
	a.GET("/oauth-cb", h.OauthCallback)
	a.GET("/loggedin", h.LoggedIn)
}

// GetJWTFromGin returns the access token from the HttpOnly cookie, or an
// empty string.
func (h *Handlers) GetJWTFromGin(c *gin.Context) string {
	jwt, err := c.Cookie(h.Conf.JWT.CookieName)
	if err != nil {
		return ""
	}
	return jwt
}

// bearerToken returns the token of an `Authorization: Bearer` header and
// whether the header was present at all.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", true
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

// setCookie sets an HttpOnly cookie using the configured jwt cookie
// settings. A negative maxAge deletes it.
func (h *Handlers) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		name,
		value,
		maxAge,
		"/",
		h.Conf.JWT.CookieDomain,
		h.Conf.JWT.CookieSetSecure,
		true,
	)
}

// setSession stores a freshly obtained session in the browser. The refresh
// cookie is only touched when a refresh token came back.
func (h *Handlers) setSession(c *gin.Context, accessToken, refreshToken string) {
	if accessToken != "" {
		h.setCookie(c, h.Conf.JWT.CookieName, accessToken, h.Conf.JWT.CookieMaxAgeSeconds)
	}
	if refreshToken != "" {
		h.setCookie(c, h.Conf.JWT.RefreshCookieName, refreshToken, h.Conf.JWT.CookieMaxAgeSeconds)
	}
}

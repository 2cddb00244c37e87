package routes

import (
	"errors"
	"io/ioutil"
	"log"
	"net/http"

	"course-middleware/auth"
	"course-middleware/helpers"
	"course-middleware/models"
	"course-middleware/observer"
	"course-middleware/payments"

	"github.com/gin-gonic/gin"
)

const (
	stripeSignatureHeader = "Stripe-Signature"
	cancelledMessage      = "No worries! Your payment was cancelled. You can try again anytime."
)

// CreateCheckoutSession returns the hosted payment page url for the posted
// email and origin.
func (h *Handlers) CreateCheckoutSession(c *gin.Context) {
	req := models.CheckoutRequest{}
	err := c.ShouldBindJSON(&req)
	if err != nil {
		helpers.JSONError(c, http.StatusBadRequest, "origin is required")
		return
	}

	url, err := h.Issuer.CreateCheckoutSession(req)
	if errors.Is(err, payments.ErrInvalidOrigin) {
		helpers.JSONError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Printf("[%v] error creating checkout session: %v", helpers.GetRequestID(c), err.Error())
		helpers.JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, models.CheckoutResponse{URL: url})
}

// StripeWebhook reads the raw body and hands it to the webhook processor
// untouched, since the signature covers the exact bytes stripe sent.
func (h *Handlers) StripeWebhook(c *gin.Context) {
	rid := helpers.GetRequestID(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Conf.Course.WebhookBodyLimit)
	payload, err := ioutil.ReadAll(c.Request.Body)
	if err != nil {
		log.Printf("[%v] webhook: failed to read body: %v", rid, err.Error())
		helpers.JSONError(c, http.StatusBadRequest, "Webhook Error: "+err.Error())
		return
	}

	res := h.Webhook.Process(payload, c.GetHeader(stripeSignatureHeader))
	log.Printf(
		"[%v] webhook: event=%v type=%v outcome=%v",
		rid,
		res.EventID,
		res.EventType,
		res.Outcome,
	)

	status := res.Outcome.StatusCode()
	switch res.Outcome {
	case payments.OutcomeRejected:
		if errors.Is(res.Err, payments.ErrMissingSignature) {
			helpers.JSONError(c, status, "Missing signature")
			return
		}
		if errors.Is(res.Err, payments.ErrMissingSecret) {
			helpers.JSONError(c, status, "Webhook secret not configured")
			return
		}
		helpers.JSONError(c, status, "Webhook Error: "+res.Err.Error())
	case payments.OutcomeBadPayload:
		if errors.Is(res.Err, payments.ErrMissingEmail) {
			helpers.JSONError(c, status, "No customer email")
			return
		}
		helpers.JSONError(c, status, "Webhook Error: "+res.Err.Error())
	case payments.OutcomeUserMissing:
		c.JSON(status, gin.H{"message": "User not found, purchase recorded"})
	case payments.OutcomeLookupFailed:
		helpers.JSONError(c, status, "Error finding user")
	case payments.OutcomePersistFailed:
		helpers.JSONError(c, status, "Error updating user")
	default:
		c.JSON(status, gin.H{"received": true})
	}
}

// Products lists what checkout sells.
func (h *Handlers) Products(c *gin.Context) {
	c.JSON(http.StatusOK, payments.GetProducts(h.Conf))
}

// Payment is the page stripe redirects back to after checkout.
func (h *Handlers) Payment(c *gin.Context) {
	switch observer.Resolve(c.Query("status")) {
	case observer.ActionShowCancelled:
		c.JSON(http.StatusOK, models.PaymentCancelledResponse{
			Status:   observer.StatusCancelled,
			Message:  cancelledMessage,
			RetryURL: h.Conf.Course.PricingURL,
			HomeURL:  h.Conf.Course.HomeURL,
		})
		return
	case observer.ActionRedirectHome:
		c.Redirect(http.StatusFound, h.Conf.Course.HomeURL)
		return
	}

	r := h.refresherFor(c)
	if r == nil {
		log.Printf("[%v] payment: no session to refresh", helpers.GetRequestID(c))
	} else {
		out := h.Observer.Await(c.Request.Context(), r)
		if out.Session != nil {
			h.setSession(c, out.Session.AccessToken, out.Session.RefreshToken)
		}
		log.Printf(
			"[%v] payment: entitled=%v after %v attempts",
			helpers.GetRequestID(c),
			out.Entitled,
			out.Attempts,
		)
	}

	c.Redirect(http.StatusSeeOther, h.Conf.Course.PostPaymentURL)
}

// refresherFor picks how to obtain a fresh session for the caller. A
// refresh token yields a brand new access token, otherwise the existing
// one is re-read. Nil when the caller has no session at all.
func (h *Handlers) refresherFor(c *gin.Context) observer.Refresher {
	refresh, err := c.Cookie(h.Conf.JWT.RefreshCookieName)
	if err == nil && refresh != "" && h.Oauth != nil {
		return &auth.TokenRefresher{Oauth: h.Oauth, Users: h.Users, RefreshToken: refresh}
	}
	jwt := h.GetJWTFromGin(c)
	if jwt == "" {
		jwt, _ = bearerToken(c)
	}
	if jwt == "" {
		return nil
	}
	return &auth.JWTRefresher{Users: h.Users, JWT: jwt}
}

package payments

import (
	"errors"
	"fmt"
	"strings"

	"course-middleware/config"
	"course-middleware/models"

	"github.com/stripe/stripe-go/v72"
)

var ErrInvalidOrigin = errors.New("invalid origin")

// SessionCreator creates hosted checkout sessions. Satisfied by the
// CheckoutSessions field of the stripe client.API.
type SessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// Issuer creates one-item checkout sessions for the configured product.
type Issuer struct {
	Sessions SessionCreator
	Conf     config.Config
}

// SuccessURL and CancelURL are the redirect targets of the payment result
// page for a given origin.
func SuccessURL(origin string) string {
	return origin + "/payment?status=success"
}

func CancelURL(origin string) string {
	return origin + "/payment?status=cancelled"
}

// CheckoutSessionParams builds the session parameters for req. The origin
// must be a bare base url on the allow list.
func (i *Issuer) CheckoutSessionParams(req models.CheckoutRequest) (*stripe.CheckoutSessionParams, error) {
	origin, err := config.NormalizeOrigin(req.Origin)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOrigin, err)
	}
	if !i.Conf.OriginAllowed(origin) {
		return nil, fmt.Errorf("%w: %v is not an allowed origin", ErrInvalidOrigin, origin)
	}

	product := i.Conf.Stripe.Product
	email := strings.TrimSpace(req.Email)

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{
			"card",
		}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(product.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(product.Name),
						Description: stripe.String(product.Description),
					},
					UnitAmount: stripe.Int64(product.UnitAmount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(i.Conf.Stripe.Mode),
		SuccessURL: stripe.String(SuccessURL(origin)),
		CancelURL:  stripe.String(CancelURL(origin)),
	}
	if email != "" {
		// only a pre-fill hint, stripe validates it
		params.CustomerEmail = stripe.String(email)
	}
	params.AddMetadata("customer_email", email)

	return params, nil
}

// CreateCheckoutSession creates the session on stripe and returns the url
// of the hosted payment page.
func (i *Issuer) CreateCheckoutSession(req models.CheckoutRequest) (string, error) {
	params, err := i.CheckoutSessionParams(req)
	if err != nil {
		return "", err
	}

	session, err := i.Sessions.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	if session.URL == "" {
		return "", fmt.Errorf("checkout session %v has no url", session.ID)
	}
	return session.URL, nil
}

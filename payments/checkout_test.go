package payments

import (
	"errors"
	"testing"

	"course-middleware/config"
	"course-middleware/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v72"
)

type fakeSessions struct {
	got  *stripe.CheckoutSessionParams
	resp *stripe.CheckoutSession
	err  error
}

func (f *fakeSessions) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.got = params
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func testIssuerConfig() config.Config {
	conf := config.Config{}
	conf.ApplyDefaults()
	return conf
}

func TestCheckoutSessionURLs(t *testing.T) {
	i := &Issuer{Conf: testIssuerConfig()}

	params, err := i.CheckoutSessionParams(models.CheckoutRequest{Origin: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/payment?status=success", *params.SuccessURL)
	assert.Equal(t, "https://example.com/payment?status=cancelled", *params.CancelURL)

	params, err = i.CheckoutSessionParams(models.CheckoutRequest{Origin: "https://example.com/"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/payment?status=success", *params.SuccessURL)
}

func TestCheckoutSessionLineItem(t *testing.T) {
	conf := testIssuerConfig()
	conf.Stripe.Product.UnitAmount = 4900
	i := &Issuer{Conf: conf}

	params, err := i.CheckoutSessionParams(models.CheckoutRequest{
		Email:  "ada@example.com",
		Origin: "https://example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "payment", *params.Mode)
	assert.Equal(t, []*string{stripe.String("card")}, params.PaymentMethodTypes)
	require.Len(t, params.LineItems, 1)
	item := params.LineItems[0]
	assert.Equal(t, int64(1), *item.Quantity)
	assert.Equal(t, int64(4900), *item.PriceData.UnitAmount)
	assert.Equal(t, "usd", *item.PriceData.Currency)
	assert.Equal(t, config.DefaultProductName, *item.PriceData.ProductData.Name)
	assert.Equal(t, config.DefaultProductDescription, *item.PriceData.ProductData.Description)
	assert.Equal(t, "ada@example.com", *params.CustomerEmail)
	assert.Equal(t, "ada@example.com", params.Metadata["customer_email"])
}

func TestCheckoutSessionWithoutEmail(t *testing.T) {
	i := &Issuer{Conf: testIssuerConfig()}

	params, err := i.CheckoutSessionParams(models.CheckoutRequest{Origin: "https://example.com"})
	require.NoError(t, err)
	assert.Nil(t, params.CustomerEmail)
	assert.Equal(t, "", params.Metadata["customer_email"])
}

func TestCheckoutSessionRejectsOrigins(t *testing.T) {
	conf := testIssuerConfig()
	conf.Global.AllowedOrigins = []string{"https://example.com"}
	i := &Issuer{Conf: conf}

	for _, origin := range []string{"", "example.com", "javascript:alert(1)", "https://example.com/evil", "https://other.example.com"} {
		_, err := i.CheckoutSessionParams(models.CheckoutRequest{Origin: origin})
		assert.True(t, errors.Is(err, ErrInvalidOrigin), origin)
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	sessions := &fakeSessions{resp: &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}}
	i := &Issuer{Sessions: sessions, Conf: testIssuerConfig()}

	url, err := i.CreateCheckoutSession(models.CheckoutRequest{Origin: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", url)
	require.NotNil(t, sessions.got)
	assert.Equal(t, "https://example.com/payment?status=success", *sessions.got.SuccessURL)
}

func TestCreateCheckoutSessionStripeError(t *testing.T) {
	sessions := &fakeSessions{err: errors.New("Invalid API Key provided")}
	i := &Issuer{Sessions: sessions, Conf: testIssuerConfig()}

	_, err := i.CreateCheckoutSession(models.CheckoutRequest{Origin: "https://example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API Key provided")
}

func TestCreateCheckoutSessionInvalidOriginSkipsStripe(t *testing.T) {
	sessions := &fakeSessions{}
	i := &Issuer{Sessions: sessions, Conf: testIssuerConfig()}

	_, err := i.CreateCheckoutSession(models.CheckoutRequest{Origin: "not a url"})
	assert.True(t, errors.Is(err, ErrInvalidOrigin))
	assert.Nil(t, sessions.got)
}

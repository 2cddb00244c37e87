package payments

import (
	"fmt"
	"strings"

	"course-middleware/config"
	"course-middleware/models"

	"github.com/stripe/stripe-go/v72/client"
)

// NewStripeClient returns an api client bound to the configured secret key.
func NewStripeClient(conf config.Config) *client.API {
	sc := &client.API{}
	sc.Init(strings.TrimSpace(conf.Stripe.SecretKey), nil)
	return sc
}

// GetProducts describes what the checkout sells so the pricing section can
// show the same price the session will charge.
func GetProducts(conf config.Config) []models.ProductSummary {
	product := conf.Stripe.Product
	priceDecimal := float64(product.UnitAmount)
	priceStr := fmt.Sprintf("%.2f", priceDecimal/100.0)

	return []models.ProductSummary{
		{
			ID:          "pro",
			Name:        product.Name,
			Description: product.Description,
			Prices: []models.ProductPrice{
				{
					ID:           "pro-" + product.Currency,
					ProductID:    "pro",
					Mode:         conf.Stripe.Mode,
					Price:        product.UnitAmount,
					PriceDecimal: priceDecimal,
					PriceStr:     priceStr,
					Currency:     product.Currency,
				},
			},
		},
	}
}

package payments

import (
	"time"

	"course-middleware/models"
)

// GrantPro merges the pro entitlement into existing user data and returns
// the result. Keys it does not own are carried over untouched. If the
// account is already pro for the same customer, the original pro_since is
// kept so that a redelivered event lands on the same state.
func GrantPro(existing map[string]interface{}, customerID string, now time.Time) map[string]interface{} {
	merged := make(map[string]interface{}, len(existing)+3)
	for k, v := range existing {
		merged[k] = v
	}

	var customer interface{}
	if customerID != "" {
		customer = customerID
	}

	proSince := now.UTC().Format(time.RFC3339)
	if alreadyPro(existing, customer) {
		if s, ok := existing[models.FieldProSince].(string); ok && s != "" {
			proSince = s
		}
	}

	merged[models.FieldIsPro] = true
	merged[models.FieldStripeCustomerID] = customer
	merged[models.FieldProSince] = proSince
	return merged
}

func alreadyPro(data map[string]interface{}, customer interface{}) bool {
	isPro, _ := data[models.FieldIsPro].(bool)
	if !isPro {
		return false
	}
	current, ok := data[models.FieldStripeCustomerID]
	if !ok {
		return false
	}
	switch c := current.(type) {
	case nil:
		return customer == nil
	case string:
		s, ok := customer.(string)
		return ok && s == c
	}
	return false
}

package payments

import (
	"testing"
	"time"

	"course-middleware/models"

	"github.com/stretchr/testify/assert"
)

func TestGrantProPreservesUnrelatedData(t *testing.T) {
	existing := map[string]interface{}{"foo": "bar", "theme": "dark"}
	now := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

	got := GrantPro(existing, "cus_1", now)

	assert.Equal(t, "bar", got["foo"])
	assert.Equal(t, "dark", got["theme"])
	assert.Equal(t, true, got[models.FieldIsPro])
	assert.Equal(t, "cus_1", got[models.FieldStripeCustomerID])
	assert.Equal(t, "2026-10-15T09:30:00Z", got[models.FieldProSince])
	assert.Len(t, existing, 2, "input map is not modified")
}

func TestGrantProNilData(t *testing.T) {
	got := GrantPro(nil, "cus_1", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	assert.Len(t, got, 3)
}

func TestGrantProKeepsOriginalProSince(t *testing.T) {
	first := GrantPro(nil, "cus_1", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	again := GrantPro(first, "cus_1", time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, first, again)
}

func TestGrantProNewCustomerRestampsProSince(t *testing.T) {
	first := GrantPro(nil, "cus_1", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	second := GrantPro(first, "cus_2", time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "cus_2", second[models.FieldStripeCustomerID])
	assert.Equal(t, "2026-06-01T00:00:00Z", second[models.FieldProSince])
}

func TestGrantProOddExistingValues(t *testing.T) {
	existing := map[string]interface{}{
		models.FieldIsPro:            "yes",
		models.FieldStripeCustomerID: map[string]interface{}{"id": "cus_1"},
	}
	got := GrantPro(existing, "cus_1", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, true, got[models.FieldIsPro])
	assert.Equal(t, "cus_1", got[models.FieldStripeCustomerID])
}

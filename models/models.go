package models

import "time"

// user data keys holding the paid entitlement on an identity provider account
const (
	FieldIsPro            = "is_pro"
	FieldStripeCustomerID = "stripe_customer_id"
	FieldProSince         = "pro_since"
)

// Account is the slice of an identity provider user this service reads and
// writes.
type Account struct {
	ID    string
	Email string
	Data  map[string]interface{}
}

// IsPro reads the entitlement flag from the account's user data. Anything
// other than a boolean true counts as not entitled.
func (a Account) IsPro() bool {
	v, ok := a.Data[FieldIsPro].(bool)
	return ok && v
}

type CheckoutRequest struct {
	Email  string `json:"email"`
	Origin string `json:"origin" binding:"required"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

type LastLesson struct {
	WeekID     int    `json:"weekId" binding:"min=1"`
	LessonSlug string `json:"lessonSlug" binding:"required"`
}

type Progress struct {
	UserID           string      `json:"-"`
	CompletedLessons []string    `json:"completed_lessons"`
	LastLesson       *LastLesson `json:"last_lesson"`
	UpdatedAt        time.Time   `json:"-"`
}

type ProgressUpdate struct {
	CompletedLessons []string    `json:"completedLessons" binding:"dive,required"`
	LastLesson       *LastLesson `json:"lastLesson"`
}

type LoggedInResponse struct {
	LoggedIn  bool   `json:"loggedIn"`
	UserID    string `json:"userId,omitempty"`
	UserEmail string `json:"email,omitempty"`
	IsPro     bool   `json:"isPro"`
}

type AccessResponse struct {
	WeekID int  `json:"weekId"`
	Locked bool `json:"locked"`
}

type PaymentCancelledResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	RetryURL string `json:"retryUrl"`
	HomeURL  string `json:"homeUrl"`
}

type ProductPrice struct {
	ID           string  `json:"id"`
	ProductID    string  `json:"productId"`
	Mode         string  `json:"mode"`
	Price        int64   `json:"price"`
	PriceDecimal float64 `json:"priceDecimal"`
	PriceStr     string  `json:"priceStr"`
	Currency     string  `json:"currency"`
}

type ProductSummary struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Prices      []ProductPrice `json:"prices"`
}

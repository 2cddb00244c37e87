package payments

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"course-middleware/auth"
	"course-middleware/models"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/webhook"
)

const EventCheckoutSessionCompleted = "checkout.session.completed"

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrMissingSecret    = errors.New("missing webhook secret")
	ErrMissingEmail     = errors.New("no customer email")
	ErrMalformedSession = errors.New("malformed checkout session")
)

// Directory is the identity provider as seen by the webhook: an exact email
// lookup and a whole-map write of user data.
type Directory interface {
	FindUserByEmail(email string) (models.Account, error)
	UpdateUserData(userID string, data map[string]interface{}) error
}

// Outcome is where an event ended up after processing.
type Outcome int

const (
	OutcomeRejected Outcome = iota
	OutcomeBadPayload
	OutcomeIgnored
	OutcomeUserMissing
	OutcomeUpdated
	OutcomeLookupFailed
	OutcomePersistFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRejected:
		return "rejected"
	case OutcomeBadPayload:
		return "bad-payload"
	case OutcomeIgnored:
		return "ignored"
	case OutcomeUserMissing:
		return "user-missing"
	case OutcomeUpdated:
		return "updated"
	case OutcomeLookupFailed:
		return "lookup-failed"
	case OutcomePersistFailed:
		return "persist-failed"
	}
	return "unknown"
}

// StatusCode is the http status stripe should see. Anything but a 2xx makes
// stripe redeliver, which is only wanted for backend failures.
func (o Outcome) StatusCode() int {
	switch o {
	case OutcomeRejected, OutcomeBadPayload:
		return http.StatusBadRequest
	case OutcomeLookupFailed, OutcomePersistFailed:
		return http.StatusInternalServerError
	}
	return http.StatusOK
}

type Result struct {
	Outcome   Outcome
	EventID   string
	EventType string
	Email     string
	UserID    string
	Err       error
}

// Webhook verifies stripe events and applies completed checkouts to the
// buyer's account.
type Webhook struct {
	Secret string
	Users  Directory
	Now    func() time.Time
}

// completedSession is the part of a checkout.session object that is
// trusted after the signature checks out.
type completedSession struct {
	ID              string            `json:"id"`
	Object          string            `json:"object"`
	Customer        customerRef       `json:"customer"`
	CustomerDetails *customerDetails  `json:"customer_details"`
	Metadata        map[string]string `json:"metadata"`
}

type customerDetails struct {
	Email string `json:"email"`
}

// customerRef accepts the customer as an id, an expanded object or null.
type customerRef string

func (c *customerRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if b[0] == '"' {
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*c = customerRef(id)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("customer must be an id or an object: %w", err)
	}
	*c = customerRef(obj.ID)
	return nil
}

// Verify authenticates payload against the signature header. The payload
// must be the exact bytes received.
func (w *Webhook) Verify(payload []byte, signature string) (stripe.Event, error) {
	if strings.TrimSpace(signature) == "" {
		return stripe.Event{}, ErrMissingSignature
	}
	secret := strings.TrimSpace(w.Secret)
	if secret == "" {
		return stripe.Event{}, ErrMissingSecret
	}
	return webhook.ConstructEvent(payload, signature, secret)
}

// Process runs one delivery through verification, dispatch, buyer lookup
// and the entitlement update. It never panics on bad input and is safe to
// run again for a redelivered event.
func (w *Webhook) Process(payload []byte, signature string) Result {
	event, err := w.Verify(payload, signature)
	if err != nil {
		log.Printf("webhook signature verification failed: %v", err)
		return Result{Outcome: OutcomeRejected, Err: err}
	}

	res := Result{EventID: event.ID, EventType: string(event.Type)}
	if res.EventType != EventCheckoutSessionCompleted {
		res.Outcome = OutcomeIgnored
		return res
	}

	session, err := parseCompletedSession(event)
	if err != nil {
		log.Printf("webhook event %v: %v", event.ID, err)
		res.Outcome = OutcomeBadPayload
		res.Err = err
		return res
	}
	if session.CustomerDetails == nil || session.CustomerDetails.Email == "" {
		log.Printf("webhook event %v: no customer email in session %v", event.ID, session.ID)
		res.Outcome = OutcomeBadPayload
		res.Err = ErrMissingEmail
		return res
	}
	res.Email = session.CustomerDetails.Email
	log.Printf("webhook event %v: processing payment for %v", event.ID, res.Email)

	user, err := w.Users.FindUserByEmail(res.Email)
	if errors.Is(err, auth.ErrUserNotFound) {
		log.Printf(
			"webhook event %v: user not found for email %v, they may need to sign up first",
			event.ID,
			res.Email,
		)
		res.Outcome = OutcomeUserMissing
		return res
	}
	if err != nil {
		log.Printf("webhook event %v: error finding user %v: %v", event.ID, res.Email, err)
		res.Outcome = OutcomeLookupFailed
		res.Err = err
		return res
	}
	res.UserID = user.ID

	data := GrantPro(user.Data, string(session.Customer), w.now())
	err = w.Users.UpdateUserData(user.ID, data)
	if err != nil {
		log.Printf("webhook event %v: error updating user %v: %v", event.ID, user.ID, err)
		res.Outcome = OutcomePersistFailed
		res.Err = err
		return res
	}

	log.Printf("webhook event %v: upgraded user %v to pro", event.ID, user.ID)
	res.Outcome = OutcomeUpdated
	return res
}

func (w *Webhook) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func parseCompletedSession(event stripe.Event) (completedSession, error) {
	session := completedSession{}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return session, fmt.Errorf("%w: event has no data object", ErrMalformedSession)
	}
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return session, fmt.Errorf("%w: %v", ErrMalformedSession, err)
	}
	if session.Object != "" && session.Object != "checkout.session" {
		return session, fmt.Errorf("%w: unexpected object %q", ErrMalformedSession, session.Object)
	}
	return session, nil
}

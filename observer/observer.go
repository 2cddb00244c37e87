// Package observer waits, bounded, for a paid entitlement to show up in the
// user's session after returning from checkout.
//
// The Stripe webhook and the browser redirect arrive independently and in
// no fixed order, so the result page cannot assume the entitlement is
// already written. It refreshes the session a few times and then moves on
// either way; a later natural refresh picks up a late webhook.
package observer

import (
	"context"
	"log"
)

// Redirect status values carried in /payment?status=...
const (
	StatusSuccess   = "success"
	StatusCancelled = "cancelled"
)

type Action int

const (
	ActionRedirectHome Action = iota
	ActionShowCancelled
	ActionAwaitEntitlement
)

func (a Action) String() string {
	switch a {
	case ActionShowCancelled:
		return "show-cancelled"
	case ActionAwaitEntitlement:
		return "await-entitlement"
	default:
		return "redirect-home"
	}
}

// Resolve maps the status query value of the payment result page to what
// the page should do. Missing or unknown values go home.
func Resolve(status string) Action {
	switch status {
	case StatusSuccess:
		return ActionAwaitEntitlement
	case StatusCancelled:
		return ActionShowCancelled
	default:
		return ActionRedirectHome
	}
}

// Session is a freshly obtained authenticated session.
type Session struct {
	AccessToken  string
	RefreshToken string
	IsPro        bool
}

// Refresher obtains a new session from the identity provider. Each call is
// a read with no side effects beyond rotating tokens.
type Refresher interface {
	Refresh(ctx context.Context) (Session, error)
}

type Outcome struct {
	// Session is the last session obtained, nil if every refresh failed.
	Session  *Session
	Entitled bool
	Attempts int
}

type Observer struct {
	Policy Policy
	sleep  sleepFunc
}

func New(p Policy) *Observer {
	return &Observer{Policy: p, sleep: sleepContext}
}

// Await refreshes the session until it carries the entitlement or the
// policy runs out. The outcome is informational: callers proceed
// regardless of Entitled.
func (o *Observer) Await(ctx context.Context, r Refresher) Outcome {
	out := Outcome{}
	res := o.Policy.poll(ctx, func(ctx context.Context) (bool, error) {
		s, err := r.Refresh(ctx)
		if err != nil {
			return false, err
		}
		out.Session = &s
		return s.IsPro, nil
	}, o.sleep)

	out.Entitled = res.Satisfied
	out.Attempts = res.Attempts
	if !res.Satisfied {
		log.Printf("entitlement not observed after %v attempts (last error: %v)", res.Attempts, res.LastErr)
	}
	return out
}

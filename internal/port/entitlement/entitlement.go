// Package entitlement defines the subscription lookup port.
package entitlement

import (
	"context"
	"time"
)

// Status describes a customer's subscription.
type Status struct {
	Email            string     `json:"email"`
	Status           string     `json:"status"` // "free", "active", "trialing", "past_due", "canceled"
	Tier             string     `json:"tier"`   // "free" | "premium"
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
}

// Active reports whether the subscription unlocks paid features.
func (s Status) Active() bool {
	return s.Status == "active" && s.Tier == "premium"
}

// Free is the status of a caller with no customer record.
func Free(email string) Status {
	return Status{Email: email, Status: "free", Tier: "free"}
}

// Store looks up subscription status by caller identity. Unknown callers
// resolve to Free rather than an error.
type Store interface {
	SubscriptionStatus(ctx context.Context, email string) (Status, error)
}

// Admin manages customer subscriptions out of band (operator CLI).
type Admin interface {
	Store
	UpsertSubscription(ctx context.Context, s Status) error
	ListSubscriptions(ctx context.Context) ([]Status, error)
}

// Checker answers the multi-city gate's question for one caller.
type Checker interface {
	HasActiveSubscription(ctx context.Context, identity string) (bool, error)
}

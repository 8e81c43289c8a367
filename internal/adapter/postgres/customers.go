package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jaimani/ai-travel-demo/internal/port/entitlement"
)

// SubscriptionStore implements entitlement.Admin over the customers table.
type SubscriptionStore struct {
	pool *pgxpool.Pool
}

// NewSubscriptionStore creates a store backed by the given pool.
func NewSubscriptionStore(pool *pgxpool.Pool) *SubscriptionStore {
	return &SubscriptionStore{pool: pool}
}

// SubscriptionStatus returns the caller's subscription, or Free when no
// customer row exists. Emails compare case-insensitively.
func (s *SubscriptionStore) SubscriptionStatus(ctx context.Context, email string) (entitlement.Status, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT email, subscription_status, subscription_tier, current_period_end
		 FROM customers WHERE lower(email) = lower($1)`, email)

	st, err := scanStatus(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return entitlement.Free(email), nil
	}
	if err != nil {
		return entitlement.Status{}, fmt.Errorf("subscription status %s: %w", email, err)
	}
	return st, nil
}

// UpsertSubscription creates or updates the customer's subscription.
func (s *SubscriptionStore) UpsertSubscription(ctx context.Context, st entitlement.Status) error {
	email := strings.ToLower(strings.TrimSpace(st.Email))
	if email == "" {
		return errors.New("upsert subscription: email is required")
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO customers (email, subscription_status, subscription_tier, current_period_end)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (email) DO UPDATE SET
		   subscription_status = EXCLUDED.subscription_status,
		   subscription_tier   = EXCLUDED.subscription_tier,
		   current_period_end  = EXCLUDED.current_period_end,
		   updated_at          = now()`,
		email, st.Status, st.Tier, st.CurrentPeriodEnd)
	if err != nil {
		return fmt.Errorf("upsert subscription %s: %w", email, err)
	}
	return nil
}

// ListSubscriptions returns every customer ordered by email.
func (s *SubscriptionStore) ListSubscriptions(ctx context.Context) ([]entitlement.Status, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT email, subscription_status, subscription_tier, current_period_end
		 FROM customers ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	out := []entitlement.Status{}
	for rows.Next() {
		st, err := scanStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Ping reports database reachability for health checks.
func (s *SubscriptionStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// scannable abstracts pgx.Row and pgx.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanStatus(row scannable) (entitlement.Status, error) {
	var (
		st        entitlement.Status
		periodEnd *time.Time
	)
	if err := row.Scan(&st.Email, &st.Status, &st.Tier, &periodEnd); err != nil {
		return entitlement.Status{}, err
	}
	st.CurrentPeriodEnd = periodEnd
	return st, nil
}

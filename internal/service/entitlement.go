package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/jaimani/ai-travel-demo/internal/port/cache"
	"github.com/jaimani/ai-travel-demo/internal/port/entitlement"
)

const entitlementKeyPrefix = "entitlement:"

// EntitlementService answers subscription questions for the multi-city gate
// and the status endpoint, caching store lookups for a short TTL.
type EntitlementService struct {
	store entitlement.Store
	cache cache.Cache
	ttl   time.Duration
}

// NewEntitlementService creates the service. c may be nil to disable caching.
func NewEntitlementService(store entitlement.Store, c cache.Cache, ttl time.Duration) *EntitlementService {
	return &EntitlementService{store: store, cache: c, ttl: ttl}
}

// Status returns the caller's subscription. Identities compare
// case-insensitively.
func (s *EntitlementService) Status(ctx context.Context, identity string) (entitlement.Status, error) {
	email := normalizeIdentity(identity)
	key := entitlementKeyPrefix + email

	if s.cache != nil {
		if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var st entitlement.Status
			if err := json.Unmarshal(raw, &st); err == nil {
				return st, nil
			}
		}
	}

	st, err := s.store.SubscriptionStatus(ctx, email)
	if err != nil {
		return entitlement.Status{}, fmt.Errorf("subscription lookup: %w", err)
	}

	if s.cache != nil {
		if raw, err := json.Marshal(st); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
				slog.Debug("entitlement cache set failed", "error", err)
			}
		}
	}
	return st, nil
}

// HasActiveSubscription implements entitlement.Checker.
func (s *EntitlementService) HasActiveSubscription(ctx context.Context, identity string) (bool, error) {
	st, err := s.Status(ctx, identity)
	if err != nil {
		return false, err
	}
	return st.Active(), nil
}

func normalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// StaticSubscriptions is an in-memory entitlement.Admin used when no
// database is configured.
type StaticSubscriptions struct {
	mu       sync.RWMutex
	statuses map[string]entitlement.Status
}

// NewStaticSubscriptions seeds active premium subscriptions for emails.
func NewStaticSubscriptions(premium ...string) *StaticSubscriptions {
	s := &StaticSubscriptions{statuses: make(map[string]entitlement.Status, len(premium))}
	for _, e := range premium {
		email := normalizeIdentity(e)
		if email == "" {
			continue
		}
		s.statuses[email] = entitlement.Status{Email: email, Status: "active", Tier: "premium"}
	}
	return s
}

// SubscriptionStatus implements entitlement.Store.
func (s *StaticSubscriptions) SubscriptionStatus(_ context.Context, email string) (entitlement.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.statuses[normalizeIdentity(email)]; ok {
		return st, nil
	}
	return entitlement.Free(email), nil
}

// UpsertSubscription implements entitlement.Admin.
func (s *StaticSubscriptions) UpsertSubscription(_ context.Context, st entitlement.Status) error {
	email := normalizeIdentity(st.Email)
	if email == "" {
		return fmt.Errorf("upsert subscription: email is required")
	}
	st.Email = email
	s.mu.Lock()
	s.statuses[email] = st
	s.mu.Unlock()
	return nil
}

// ListSubscriptions implements entitlement.Admin.
func (s *StaticSubscriptions) ListSubscriptions(_ context.Context) ([]entitlement.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entitlement.Status, 0, len(s.statuses))
	for _, st := range s.statuses {
		out = append(out, st)
	}
	return out, nil
}

var (
	_ entitlement.Checker = (*EntitlementService)(nil)
	_ entitlement.Admin   = (*StaticSubscriptions)(nil)
)

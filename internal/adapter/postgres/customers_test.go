package postgres_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jaimani/ai-travel-demo/internal/adapter/postgres"
	"github.com/jaimani/ai-travel-demo/internal/config"
	"github.com/jaimani/ai-travel-demo/internal/port/entitlement"
)

// setupStore migrates the database at DATABASE_URL and returns a store.
// The pool is closed via t.Cleanup.
func setupStore(t *testing.T) *postgres.SubscriptionStore {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("requires DATABASE_URL")
	}

	ctx := context.Background()
	if err := postgres.RunMigrations(ctx, dsn); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	cfg := config.Defaults().Postgres
	cfg.DSN = dsn
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	t.Cleanup(pool.Close)

	return postgres.NewSubscriptionStore(pool)
}

func uniqueEmail() string {
	return "traveler-" + uuid.NewString()[:8] + "@example.com"
}

func TestSubscriptionStatus_UnknownIsFree(t *testing.T) {
	store := setupStore(t)
	email := uniqueEmail()

	st, err := store.SubscriptionStatus(context.Background(), email)
	if err != nil {
		t.Fatalf("SubscriptionStatus: %v", err)
	}
	if st != entitlement.Free(email) {
		t.Fatalf("expected free status, got %+v", st)
	}
	if st.Active() {
		t.Fatal("free customer must not be active")
	}
}

func TestUpsertSubscription_RoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	email := uniqueEmail()
	end := time.Now().Add(30 * 24 * time.Hour).UTC().Truncate(time.Second)

	if err := store.UpsertSubscription(ctx, entitlement.Status{
		Email: email, Status: "active", Tier: "premium", CurrentPeriodEnd: &end,
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	st, err := store.SubscriptionStatus(ctx, email)
	if err != nil {
		t.Fatalf("SubscriptionStatus: %v", err)
	}
	if !st.Active() {
		t.Fatalf("expected active premium, got %+v", st)
	}
	if st.CurrentPeriodEnd == nil || !st.CurrentPeriodEnd.Equal(end) {
		t.Errorf("period end = %v, want %v", st.CurrentPeriodEnd, end)
	}

	// Downgrade overwrites the same row.
	if err := store.UpsertSubscription(ctx, entitlement.Status{Email: email, Status: "canceled", Tier: "premium"}); err != nil {
		t.Fatalf("upsert downgrade: %v", err)
	}
	st, _ = store.SubscriptionStatus(ctx, email)
	if st.Active() || st.Status != "canceled" {
		t.Fatalf("expected canceled, got %+v", st)
	}

	all, err := store.ListSubscriptions(ctx)
	if err != nil {
		t.Fatalf("ListSubscriptions: %v", err)
	}
	found := 0
	for _, s := range all {
		if s.Email == email {
			found++
		}
	}
	if found != 1 {
		t.Fatalf("expected exactly one row for %s, got %d", email, found)
	}
}

func TestSubscriptionStatus_CaseInsensitive(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	email := uniqueEmail()

	if err := store.UpsertSubscription(ctx, entitlement.Status{Email: email, Status: "active", Tier: "premium"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	upper, err := store.SubscriptionStatus(ctx, strings.ToUpper(email))
	if err != nil {
		t.Fatalf("SubscriptionStatus: %v", err)
	}
	if !upper.Active() {
		t.Fatalf("expected case-insensitive match, got %+v", upper)
	}
}

func TestMigrationVersion(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("requires DATABASE_URL")
	}
	ctx := context.Background()
	if err := postgres.RunMigrations(ctx, dsn); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	v, err := postgres.MigrationVersion(ctx, dsn)
	if err != nil {
		t.Fatalf("MigrationVersion: %v", err)
	}
	if v < 1 {
		t.Fatalf("expected version >= 1, got %d", v)
	}
}

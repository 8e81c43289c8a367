package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jaimani/ai-travel-demo/internal/adapter/postgres"
	"github.com/jaimani/ai-travel-demo/internal/config"
	"github.com/jaimani/ai-travel-demo/internal/port/entitlement"
)

// runAdmin dispatches admin subcommands (set-subscription, list-customers, migrate).
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "set-subscription":
		return runAdminSetSubscription(args[1:])
	case "list-customers":
		return runAdminListCustomers(args[1:])
	case "migrate":
		return runAdminMigrate(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: travelplanner admin <command> [options]

Commands:
  set-subscription   Create or update a customer's subscription
  list-customers     List all customers
  migrate            Apply, roll back or inspect schema migrations
  help               Show this help message

Examples:
  travelplanner admin set-subscription --email jane@example.com --status active --tier premium
  travelplanner admin set-subscription --email jane@example.com --status canceled --tier free
  travelplanner admin list-customers
  travelplanner admin migrate up
  travelplanner admin migrate down --steps 1
  travelplanner admin migrate version
`)
}

func loadAdminConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("postgres dsn is not configured (set DATABASE_URL)")
	}
	return cfg, nil
}

func loadAdminStore() (entitlement.Admin, func(), error) {
	cfg, err := loadAdminConfig()
	if err != nil {
		return nil, nil, err
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	return postgres.NewSubscriptionStore(pool), pool.Close, nil
}

var (
	validStatuses = []string{"free", "active", "trialing", "past_due", "canceled"}
	validTiers    = []string{"free", "premium"}
)

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func runAdminSetSubscription(args []string) error {
	fs := flag.NewFlagSet("set-subscription", flag.ContinueOnError)
	email := fs.String("email", "", "customer email address (required)")
	status := fs.String("status", "active", "subscription status: "+strings.Join(validStatuses, ", "))
	tier := fs.String("tier", "premium", "subscription tier: "+strings.Join(validTiers, ", "))
	periodEnd := fs.String("period-end", "", "current period end, RFC 3339 or YYYY-MM-DD (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		return fmt.Errorf("--email is required")
	}
	if !oneOf(*status, validStatuses) {
		return fmt.Errorf("invalid --status %q", *status)
	}
	if !oneOf(*tier, validTiers) {
		return fmt.Errorf("invalid --tier %q", *tier)
	}

	st := entitlement.Status{
		Email:  strings.ToLower(strings.TrimSpace(*email)),
		Status: *status,
		Tier:   *tier,
	}
	if *periodEnd != "" {
		end, err := parsePeriodEnd(*periodEnd)
		if err != nil {
			return err
		}
		st.CurrentPeriodEnd = &end
	}

	store, cleanup, err := loadAdminStore()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := store.UpsertSubscription(context.Background(), st); err != nil {
		return fmt.Errorf("set subscription: %w", err)
	}

	fmt.Printf("Subscription for %s set to %s/%s.\n", st.Email, st.Status, st.Tier)
	return nil
}

func parsePeriodEnd(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --period-end %q: want RFC 3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

func runAdminListCustomers(args []string) error {
	fs := flag.NewFlagSet("list-customers", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, cleanup, err := loadAdminStore()
	if err != nil {
		return err
	}
	defer cleanup()

	customers, err := store.ListSubscriptions(context.Background())
	if err != nil {
		return fmt.Errorf("list customers: %w", err)
	}

	if len(customers) == 0 {
		fmt.Println("No customers found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "EMAIL\tSTATUS\tTIER\tACTIVE\tPERIOD_END")
	for i := range customers {
		end := "-"
		if customers[i].CurrentPeriodEnd != nil {
			end = customers[i].CurrentPeriodEnd.Format(time.DateOnly)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n",
			customers[i].Email, customers[i].Status, customers[i].Tier, customers[i].Active(), end)
	}
	return w.Flush()
}

func runAdminMigrate(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("migrate requires one of: up, down, version")
	}

	fs := flag.NewFlagSet("migrate "+args[0], flag.ContinueOnError)
	steps := fs.Int("steps", 1, "number of migrations to roll back (down only)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	cfg, err := loadAdminConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	switch args[0] {
	case "up":
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return err
		}
		fmt.Println("Migrations applied.")
	case "down":
		if *steps < 1 {
			return fmt.Errorf("--steps must be >= 1")
		}
		if err := postgres.RollbackMigrations(ctx, cfg.Postgres.DSN, *steps); err != nil {
			return err
		}
		fmt.Printf("Rolled back %d migration(s).\n", *steps)
	case "version":
		v, err := postgres.MigrationVersion(ctx, cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		fmt.Printf("Schema version: %d\n", v)
	default:
		return fmt.Errorf("unknown migrate command: %s", args[0])
	}
	return nil
}

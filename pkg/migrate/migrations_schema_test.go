package migrate_test

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/calebmoran/printworks-backend/pkg/migrate"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matching %q", pattern)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestMigrationsPassValidation(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestTypesMigrationRunsFirst(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("no migration files found")
	}

	sort.Strings(matches)
	if !strings.HasSuffix(matches[0], "_create_types.sql") {
		t.Fatalf("expected the types migration to sort first, got %q", matches[0])
	}
}

func TestTypesMigrationDefinesEnums(t *testing.T) {
	content := readMigration(t, "*_create_types.sql")

	checks := []string{
		"CREATE EXTENSION IF NOT EXISTS pgcrypto",
		"CREATE TYPE member_role AS ENUM",
		"CREATE TYPE customer_tier AS ENUM",
		"CREATE TYPE product_category AS ENUM",
		"CREATE TYPE product_material AS ENUM",
		"CREATE TYPE cart_status AS ENUM",
		"CREATE TYPE order_status AS ENUM",
		"CREATE TYPE net_terms AS ENUM",
		"CREATE TYPE invoice_status AS ENUM",
		"CREATE TYPE proof_status AS ENUM",
		"CREATE TYPE ticket_status AS ENUM",
		"CREATE TYPE subscription_status AS ENUM",
		"CREATE TYPE notification_type AS ENUM",
		"CREATE TYPE ledger_event_type_enum AS ENUM",
		"CREATE TYPE event_type_enum AS ENUM",
		"CREATE TYPE aggregate_type_enum AS ENUM",
		"CREATE TYPE outbox_dlq_error_reason_enum AS ENUM",
		"CREATE TYPE address_t AS",
		"CREATE TYPE applied_promo AS",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestProductsMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_products_table.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS products",
		"CREATE TABLE IF NOT EXISTS material_specs",
		"CHECK (base_price >= 0)",
		"CHECK (moq >= 1)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_products_sku",
		"CREATE INDEX IF NOT EXISTS idx_products_category_is_active",
		"DROP TABLE IF EXISTS products",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersMigrationSeedsSequenceRow(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE TABLE IF NOT EXISTS order_line_items",
		"CREATE TABLE IF NOT EXISTS order_sequences",
		"INSERT INTO order_sequences (id, last_value) VALUES (1, 1000)",
		"ON CONFLICT (id) DO NOTHING",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_order_number",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOutboxMigrationIndexesPendingRows(t *testing.T) {
	content := readMigration(t, "*_create_outbox.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS outbox_events",
		"CREATE TABLE IF NOT EXISTS outbox_dlqs",
		"payload_json jsonb NOT NULL",
		"WHERE published_at IS NULL",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

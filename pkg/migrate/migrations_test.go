package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEquipmentMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_equipment.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS equipment",
		"CHECK (total_quantity >= 0)",
		"CHECK (available_quantity >= 0)",
		"CHECK (available_quantity <= total_quantity)",
		"lock_version BIGINT NOT NULL DEFAULT 0",
		"WHERE is_deleted = FALSE",
		"DROP TABLE IF EXISTS equipment",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestRequestsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_requests.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS requests",
		"FOREIGN KEY (user_id) REFERENCES users(id)",
		"FOREIGN KEY (equipment_id) REFERENCES equipment(id)",
		"CHECK (quantity > 0)",
		"'pending', 'approved', 'rejected', 'issued', 'returned', 'overdue', 'cancelled'",
		"DROP TABLE IF EXISTS requests",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file found for %s", pattern)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

package migrate

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"testing"
)

const migrationsDir = "migrations"

func readUpSections(t *testing.T) map[string]string {
	t.Helper()
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	ups := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		body, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			t.Fatalf("read %s: %v", entry.Name(), err)
		}
		up, _, _ := strings.Cut(string(body), "-- +goose Down")
		ups[entry.Name()] = up
	}
	return ups
}

func TestMigrationsPassValidation(t *testing.T) {
	if err := ValidateDir(migrationsDir); err != nil {
		t.Fatalf("shipped migrations must validate: %v", err)
	}
}

// A table created by two migrations aborts a fresh goose up with
// "relation already exists", so the schema must define each table exactly
// once.
func TestMigrationsCreateEachTableExactlyOnce(t *testing.T) {
	createRe := regexp.MustCompile(`(?i)CREATE TABLE\s+(\w+)`)

	createdBy := make(map[string][]string)
	for name, up := range readUpSections(t) {
		for _, m := range createRe.FindAllStringSubmatch(up, -1) {
			table := strings.ToLower(m[1])
			createdBy[table] = append(createdBy[table], name)
		}
	}
	if len(createdBy) == 0 {
		t.Fatal("expected the migrations to create the schema")
	}
	for table, files := range createdBy {
		if len(files) != 1 {
			sort.Strings(files)
			t.Fatalf("table %s is created by %d migrations: %v", table, len(files), files)
		}
	}
}

func TestSeededPlansPayMoreForHigherTiers(t *testing.T) {
	rowRe := regexp.MustCompile(`\('([^']+)',\s*(\d+),\s*\d+,\s*([0-9.]+)\)`)

	type plan struct {
		name  string
		price int
		rate  float64
	}
	var plans []plan
	for name, up := range readUpSections(t) {
		if !strings.Contains(name, "seed_subscription_plans") {
			continue
		}
		for _, m := range rowRe.FindAllStringSubmatch(up, -1) {
			price, err := strconv.Atoi(m[2])
			if err != nil {
				t.Fatalf("parse price for %s: %v", m[1], err)
			}
			rate, err := strconv.ParseFloat(m[3], 64)
			if err != nil {
				t.Fatalf("parse rate for %s: %v", m[1], err)
			}
			plans = append(plans, plan{name: m[1], price: price, rate: rate})
		}
	}
	if len(plans) < 2 {
		t.Fatalf("expected seeded plans, found %d", len(plans))
	}

	free := 0
	for _, p := range plans {
		if p.price == 0 {
			free++
		}
	}
	if free != 1 {
		t.Fatalf("exactly one plan may be free, found %d", free)
	}

	// Paying for a plan buys a better commission rate: sorted by price, rates
	// must strictly increase.
	sort.Slice(plans, func(i, j int) bool { return plans[i].price < plans[j].price })
	for i := 1; i < len(plans); i++ {
		prev, cur := plans[i-1], plans[i]
		if cur.rate <= prev.rate {
			t.Fatalf("%s (price %d, rate %.4f) must out-earn %s (price %d, rate %.4f)",
				cur.name, cur.price, cur.rate, prev.name, prev.price, prev.rate)
		}
	}
}

package catalog

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/policydocs/harvester/internal/harvest"
	"github.com/policydocs/harvester/pkg/config"
	"github.com/policydocs/harvester/pkg/postgres"
)

// skipIfNoPostgres skips the test when PostgreSQL is unavailable.
func skipIfNoPostgres(t *testing.T) *Catalog {
	t.Helper()
	db, err := postgres.New(testPostgresConfig())
	if err != nil {
		t.Skipf("skipping catalog test: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cat := New(db)
	if err := cat.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error: %v", err)
	}
	t.Cleanup(func() {
		db.DB.Exec(`DELETE FROM documents`)
		db.DB.Exec(`DELETE FROM interactions`)
	})
	return cat
}

func testPostgresConfig() config.PostgresConfig {
	return config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            envOrDefaultInt("TEST_POSTGRES_PORT", 5432),
		Database:        envOrDefault("TEST_POSTGRES_DB", "harvester_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "harvester"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func testDocument(key string) harvest.ProcessedDocument {
	return harvest.ProcessedDocument{
		OriginalURL: "https://policies.example.gov/files/manual.pdf",
		Filename:    "manual.pdf",
		LinkText:    "Child Welfare Manual",
		Section:     "child-welfare-manuals",
		StorageKey:  key,
		SizeBytes:   2048,
		ContentType: "application/pdf",
		ProcessedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestRecordDocumentUpsert(t *testing.T) {
	cat := skipIfNoPostgres(t)
	ctx := context.Background()
	key := "policy-pdfs/child-welfare-manuals/manual.pdf"

	if err := cat.RecordDocument(ctx, testDocument(key)); err != nil {
		t.Fatalf("RecordDocument() error: %v", err)
	}

	// Same storage key again: overwrite, not duplicate.
	updated := testDocument(key)
	updated.SizeBytes = 4096
	if err := cat.RecordDocument(ctx, updated); err != nil {
		t.Fatalf("RecordDocument() upsert error: %v", err)
	}

	docs, err := cat.ListDocuments(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListDocuments() error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d documents, want 1", len(docs))
	}
	if docs[0].SizeBytes != 4096 {
		t.Errorf("SizeBytes = %d, want the upserted 4096", docs[0].SizeBytes)
	}
}

func TestListDocumentsSectionFilter(t *testing.T) {
	cat := skipIfNoPostgres(t)
	ctx := context.Background()

	manual := testDocument("policy-pdfs/child-welfare-manuals/a.pdf")
	sleep := testDocument("policy-pdfs/safe-sleep-resources/b.pdf")
	sleep.Section = "safe-sleep-resources"
	for _, doc := range []harvest.ProcessedDocument{manual, sleep} {
		if err := cat.RecordDocument(ctx, doc); err != nil {
			t.Fatalf("RecordDocument() error: %v", err)
		}
	}

	docs, err := cat.ListDocuments(ctx, "safe-sleep-resources", 0)
	if err != nil {
		t.Fatalf("ListDocuments() error: %v", err)
	}
	if len(docs) != 1 || docs[0].Section != "safe-sleep-resources" {
		t.Errorf("filtered list = %+v, want only safe-sleep-resources", docs)
	}
}

func TestRecordInteraction(t *testing.T) {
	cat := skipIfNoPostgres(t)
	ctx := context.Background()

	err := cat.RecordInteraction(ctx, Interaction{
		SessionID:   "session_1748000000_0042",
		Kind:        "query",
		Query:       "What is the CPS assessment process?",
		Response:    "canned answer",
		SourceCount: 2,
	})
	if err != nil {
		t.Fatalf("RecordInteraction() error: %v", err)
	}

	var userID string
	row := cat.db.DB.QueryRowContext(ctx,
		`SELECT user_id FROM interactions WHERE session_id = $1`, "session_1748000000_0042")
	if err := row.Scan(&userID); err != nil {
		t.Fatalf("reading interaction back: %v", err)
	}
	if userID != "anonymous" {
		t.Errorf("user_id = %q, want anonymous default", userID)
	}
}

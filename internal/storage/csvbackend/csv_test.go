package csvbackend

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/ranchwatch/internal/storage"
	"github.com/FranksOps/ranchwatch/internal/storage/storagetest"
)

func TestCSVBackend(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "findings.csv")

	b, err := New(filePath)
	if err != nil {
		t.Fatalf("Failed to create CSV backend: %v", err)
	}
	defer b.Close()

	storagetest.Run(t, b)
}

func TestCSVBackend_HeaderWrittenOnce(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "findings.csv")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		b, err := New(filePath)
		if err != nil {
			t.Fatalf("Failed to create CSV backend: %v", err)
		}
		if err := b.Append(ctx, storage.NewFinding("06/05/2025", 1, time.Now())); err != nil {
			t.Fatalf("Failed to append: %v", err)
		}
		b.Close()
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "id,date,nights,found_at"); n != 1 {
		t.Errorf("expected exactly one header row, got %d", n)
	}
}

func TestCSVBackend_SkipsMalformedRows(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "findings.csv")
	content := "id,date,nights,found_at\nbroken-row\nok,06/05/2025,2,2025-05-20T09:30:00Z\n"
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	b, err := New(filePath)
	if err != nil {
		t.Fatalf("Failed to create CSV backend: %v", err)
	}
	defer b.Close()

	got, err := b.Query(context.Background(), storage.Filter{})
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(got) != 1 || got[0].ID != "ok" || got[0].Nights != 2 {
		t.Fatalf("expected the single well-formed row, got %+v", got)
	}
}

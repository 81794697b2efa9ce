// Package storagetest holds the behaviour every storage.Backend must share.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/FranksOps/ranchwatch/internal/storage"
)

// Run appends three findings across two detection events and checks the
// filters, ordering and paging a backend must honour.
func Run(t *testing.T, b storage.Backend) {
	t.Helper()

	ctx := context.Background()
	first := time.Now().Add(-2 * time.Hour).Truncate(time.Second).UTC()
	second := first.Add(time.Hour)

	in := []*storage.Finding{
		storage.NewFinding("06/05/2025", 2, first),
		storage.NewFinding("06/07/2025", 2, first),
		storage.NewFinding("07/11/2025", 2, second),
	}
	for _, f := range in {
		if err := b.Append(ctx, f); err != nil {
			t.Fatalf("Failed to append %s: %v", f.Date, err)
		}
	}

	all, err := b.Query(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("Failed to query all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 findings, got %d", len(all))
	}
	if all[0].Date != "07/11/2025" {
		t.Errorf("Expected newest finding first, got %s", all[0].Date)
	}
	if !all[0].FoundAt.Equal(second) {
		t.Errorf("Expected FoundAt %v, got %v", second, all[0].FoundAt)
	}
	if all[0].Nights != 2 {
		t.Errorf("Expected 2 nights, got %d", all[0].Nights)
	}

	byDate, err := b.Query(ctx, storage.Filter{Date: "06/05/2025"})
	if err != nil {
		t.Fatalf("Failed to query by date: %v", err)
	}
	if len(byDate) != 1 || byDate[0].Date != "06/05/2025" {
		t.Fatalf("Expected one finding for 06/05/2025, got %d", len(byDate))
	}

	since := first.Add(30 * time.Minute)
	recent, err := b.Query(ctx, storage.Filter{Since: &since})
	if err != nil {
		t.Fatalf("Failed to query by Since: %v", err)
	}
	if len(recent) != 1 || recent[0].Date != "07/11/2025" {
		t.Fatalf("Expected only the second event since %v, got %d findings", since, len(recent))
	}

	limited, err := b.Query(ctx, storage.Filter{Limit: 2})
	if err != nil {
		t.Fatalf("Failed to query limit: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("Expected 2 findings with limit, got %d", len(limited))
	}

	offset, err := b.Query(ctx, storage.Filter{Offset: 1})
	if err != nil {
		t.Fatalf("Failed to query offset: %v", err)
	}
	if len(offset) != 2 {
		t.Fatalf("Expected 2 findings after offset, got %d", len(offset))
	}
	if offset[0].Date == "07/11/2025" {
		t.Errorf("Offset did not skip the newest finding")
	}
}

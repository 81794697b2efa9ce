package storage

import (
	"testing"
	"time"
)

func TestNewFinding(t *testing.T) {
	at := time.Date(2025, 5, 20, 9, 30, 0, 0, time.UTC)
	a := NewFinding("06/05/2025", 2, at)
	b := NewFinding("06/05/2025", 2, at)

	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected distinct non-empty IDs, got %q and %q", a.ID, b.ID)
	}
	if a.Date != "06/05/2025" || a.Nights != 2 || !a.FoundAt.Equal(at) {
		t.Errorf("unexpected finding: %+v", a)
	}
}

func TestApply(t *testing.T) {
	base := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)
	all := []*Finding{
		{ID: "1", Date: "06/05/2025", FoundAt: base},
		{ID: "2", Date: "06/07/2025", FoundAt: base.Add(time.Hour)},
		{ID: "3", Date: "06/05/2025", FoundAt: base.Add(2 * time.Hour)},
	}
	since := base.Add(30 * time.Minute)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all newest first", Filter{}, []string{"3", "2", "1"}},
		{"by date", Filter{Date: "06/05/2025"}, []string{"3", "1"}},
		{"since", Filter{Since: &since}, []string{"3", "2"}},
		{"limit", Filter{Limit: 1}, []string{"3"}},
		{"offset", Filter{Offset: 2}, []string{"1"}},
		{"offset past end", Filter{Offset: 5}, []string{}},
		{"limit and offset", Filter{Offset: 1, Limit: 1}, []string{"2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(all, tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d findings, got %d", len(tt.want), len(got))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("position %d: expected %s, got %s", i, id, got[i].ID)
				}
			}
		})
	}
}

package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/ranchwatch/internal/storage"
)

func TestGenerateSummary(t *testing.T) {
	now := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)

	findings := []*storage.Finding{
		{Date: "07/11/2025", Nights: 2, FoundAt: now.Add(2 * time.Hour)},
		{Date: "06/05/2025", Nights: 2, FoundAt: now},
		{Date: "06/07/2025", Nights: 2, FoundAt: now},
		{Date: "06/05/2025", Nights: 3, FoundAt: now.Add(time.Hour)},
		{Date: "garbage", Nights: 1, FoundAt: now.Add(time.Hour)},
	}

	summary := GenerateSummary(findings)

	if summary.TotalFindings != 5 {
		t.Errorf("expected 5 findings, got %d", summary.TotalFindings)
	}
	if summary.Events != 3 {
		t.Errorf("expected 3 events, got %d", summary.Events)
	}

	wantDates := []string{"06/05/2025", "06/07/2025", "07/11/2025", "garbage"}
	if strings.Join(summary.Dates, ",") != strings.Join(wantDates, ",") {
		t.Errorf("expected dates %v, got %v", wantDates, summary.Dates)
	}

	if summary.ByMonth["2025-06"] != 3 || summary.ByMonth["2025-07"] != 1 || summary.ByMonth["unknown"] != 1 {
		t.Errorf("unexpected month breakdown: %v", summary.ByMonth)
	}
	if summary.ByNights[2] != 3 || summary.ByNights[3] != 1 || summary.ByNights[1] != 1 {
		t.Errorf("unexpected nights breakdown: %v", summary.ByNights)
	}

	if !summary.FirstFound.Equal(now) || !summary.LastFound.Equal(now.Add(2*time.Hour)) {
		t.Errorf("unexpected first/last: %v / %v", summary.FirstFound, summary.LastFound)
	}
	if summary.Span != 2*time.Hour {
		t.Errorf("expected 2h span, got %v", summary.Span)
	}
}

func TestGenerateSummary_Empty(t *testing.T) {
	summary := GenerateSummary(nil)
	if summary.TotalFindings != 0 || summary.Events != 0 || len(summary.Dates) != 0 {
		t.Errorf("expected zero summary, got %+v", summary)
	}
	if summary.ByMonth == nil || summary.ByNights == nil {
		t.Errorf("expected initialised maps")
	}
}

func TestWriteJSON(t *testing.T) {
	summary := Summary{
		TotalFindings: 5,
	}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, summary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), `"TotalFindings": 5`) {
		t.Errorf("expected JSON to contain TotalFindings: 5")
	}
}

func TestWriteText(t *testing.T) {
	summary := Summary{
		TotalFindings: 2,
		Events:        1,
		Dates:         []string{"06/05/2025", "06/07/2025"},
		ByMonth:       map[string]int{"2025-06": 2},
		ByNights:      map[int]int{2: 2},
		FirstFound:    time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC),
		LastFound:     time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC),
	}
	var buf bytes.Buffer
	if err := WriteText(&buf, summary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Findings:      2", "Events:        1", "  06/07/2025", "2025-06: 2", "  2: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected text to contain %q\n%s", want, out)
		}
	}
}

func TestWriteText_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, GenerateSummary(nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(buf.String(), "0001-01-01") {
		t.Errorf("empty summary should not print zero timestamps:\n%s", buf.String())
	}
}

func TestWriteHTML(t *testing.T) {
	summary := Summary{
		TotalFindings: 1,
		Dates:         []string{"06/05/2025"},
		ByMonth:       map[string]int{"2025-06": 1},
	}
	var buf bytes.Buffer
	if err := WriteHTML(&buf, summary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "<title>Ranchwatch Findings</title>") {
		t.Errorf("expected HTML title")
	}
	if !strings.Contains(out, "06/05/2025") {
		t.Errorf("expected HTML to contain the date")
	}
}

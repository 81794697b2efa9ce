package availability

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestBuildPayload_Exact(t *testing.T) {
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	got := BuildPayload(date, 2, 4)
	want := "date=06/01/2025&nights=2&H4%5B%5D=" +
		"&H4%5B1%5D%5B%5D=4&H4%5B1%5D%5B%5D=0&H4%5B1%5D%5B%5D=0" +
		"&H4%5B2%5D%5B%5D=4&H4%5B2%5D%5B%5D=0&H4%5B2%5D%5B%5D=0"
	if got != want {
		t.Errorf("BuildPayload mismatch:\n got %s\nwant %s", got, want)
	}
}

func TestBuildPayload_BlockPerNight(t *testing.T) {
	date := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	for nights := 1; nights <= 6; nights++ {
		for _, people := range []int{1, 3, 10} {
			body := BuildPayload(date, nights, people)
			fields := strings.Split(body, "&")

			if fields[0] != "date=12/31/2025" || fields[1] != fmt.Sprintf("nights=%d", nights) || fields[2] != "H4%5B%5D=" {
				t.Fatalf("nights=%d: unexpected prefix %v", nights, fields[:3])
			}

			blocks := fields[3:]
			if len(blocks) != 3*nights {
				t.Fatalf("nights=%d: expected %d room fields, got %d", nights, 3*nights, len(blocks))
			}
			for n := 1; n <= nights; n++ {
				key := fmt.Sprintf("H4%%5B%d%%5D%%5B%%5D=", n)
				block := blocks[(n-1)*3 : n*3]
				want := []string{key + fmt.Sprint(people), key + "0", key + "0"}
				for i := range want {
					if block[i] != want[i] {
						t.Errorf("nights=%d block %d field %d: got %s want %s", nights, n, i, block[i], want[i])
					}
				}
			}
		}
	}
}

func TestBuildPayload_PanicsOnBadInput(t *testing.T) {
	for _, tc := range []struct{ nights, people int }{{0, 4}, {2, 0}, {-1, -1}} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("BuildPayload(%d, %d) did not panic", tc.nights, tc.people)
				}
			}()
			BuildPayload(time.Now(), tc.nights, tc.people)
		}()
	}
}

func TestNewStayQuery(t *testing.T) {
	if _, err := NewStayQuery(0, 4); err == nil {
		t.Error("expected error for zero nights")
	}
	if _, err := NewStayQuery(2, 0); err == nil {
		t.Error("expected error for zero people")
	}
	q, err := NewStayQuery(2, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if q.Payload(date) != BuildPayload(date, 2, 4) {
		t.Error("StayQuery.Payload disagrees with BuildPayload")
	}
}

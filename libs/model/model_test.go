package model

import "testing"

func TestParseBookingStatus(t *testing.T) {
	for _, raw := range []string{"pending", " Confirmed ", "CANCELLED"} {
		if _, err := ParseBookingStatus(raw); err != nil {
			t.Fatalf("ParseBookingStatus(%q) failed: %v", raw, err)
		}
	}
	if _, err := ParseBookingStatus("done"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestAverageRating(t *testing.T) {
	if got := AverageRating(nil); got != 0 {
		t.Fatalf("expected 0 for empty list, got %v", got)
	}
	got := AverageRating([]Review{{Rating: 5}, {Rating: 4}})
	if got != 4.5 {
		t.Fatalf("expected 4.5, got %v", got)
	}
}

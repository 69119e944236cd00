package date

import (
	"testing"
	"time"
)

// TestTime asserts that Time() is canonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := New(2025, 7, 31)
	d2 := New(2025, 7, 31)

	if d1.Time() != d2.Time() {
		// Note that usually time.Time are not comparable (there is a pointer for the timezone) this
		// tests also checks that the property remain true
		t.Errorf("invalid Time() function same day gives two different time")
	}
}

func TestParse(t *testing.T) {
	testCases := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{in: "2023-01-20", want: New(2023, time.January, 20)},
		{in: "2023-1-2", want: New(2023, time.January, 2)},
		{in: "2023/01/20", wantErr: true},
		{in: "not-a-date", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Parse(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if !tc.wantErr && got != tc.want {
				t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestNew_Normalizes(t *testing.T) {
	// Day overflow rolls into the next month, like time.Date.
	got := New(2023, time.January, 32)
	want := New(2023, time.February, 1)
	if got != want {
		t.Errorf("New(2023, January, 32) = %v, want %v", got, want)
	}
}

func TestCompare(t *testing.T) {
	a := New(2023, time.June, 15)
	b := New(2023, time.June, 16)
	if a.Compare(b) != -1 || b.Compare(a) != 1 || a.Compare(a) != 0 {
		t.Errorf("Compare ordering is wrong for %v and %v", a, b)
	}
	if !a.Before(b) || !b.After(a) {
		t.Errorf("Before/After ordering is wrong for %v and %v", a, b)
	}
}

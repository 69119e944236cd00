package stocktax

import (
	"testing"
	"time"
)

func TestParseEventTime(t *testing.T) {
	testCases := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{
			in:   "2023-07-14 09:30:00.123456",
			want: time.Date(2023, time.July, 14, 9, 30, 0, 123456000, time.UTC),
		},
		{
			in:   "2023-07-14 09:30:00",
			want: time.Date(2023, time.July, 14, 9, 30, 0, 0, time.UTC),
		},
		{in: "2023-07-14T09:30:00Z", wantErr: true},
		{in: "2023-07-14", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseEventTime(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseEventTime(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if !tc.wantErr && !got.Equal(tc.want) {
				t.Errorf("ParseEventTime(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

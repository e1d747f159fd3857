package progress

import (
	"errors"
	"testing"
	"time"

	"github.com/claude/fittrack/internal/ptr"
	"github.com/google/uuid"
)

// TestNewBodyMetric covers date defaulting and measurement validation.
func TestNewBodyMetric(t *testing.T) {
	today := time.Date(2024, 5, 8, 21, 30, 0, 0, time.UTC)
	tests := []struct {
		name     string
		req      BodyMetricRequest
		wantErr  bool
		wantDate string
	}{
		{"weight only", BodyMetricRequest{Weight: ptr.Ref(80.5)}, false, "2024-05-08"},
		{"explicit date", BodyMetricRequest{Date: "2024-04-01", Waist: ptr.Ref(82.0)}, false, "2024-04-01"},
		{"zero is a measurement", BodyMetricRequest{Arms: ptr.Ref(0.0)}, false, "2024-05-08"},
		{"nothing entered", BodyMetricRequest{}, true, ""},
		{"negative", BodyMetricRequest{Weight: ptr.Ref(80.0), Hips: ptr.Ref(-1.0)}, true, ""},
		{"bad date", BodyMetricRequest{Date: "01/04/2024", Weight: ptr.Ref(80.0)}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewBodyMetric(uuid.New(), tt.req, today)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidBodyMetric) {
					t.Errorf("err = %v, want ErrInvalidBodyMetric", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got := m.Date.Format(time.DateOnly); got != tt.wantDate {
				t.Errorf("date = %s, want %s", got, tt.wantDate)
			}
		})
	}
}

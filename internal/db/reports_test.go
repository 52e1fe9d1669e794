package db

import (
	"context"
	"errors"
	"testing"
)

// Without a configured database every store operation must refuse with
// ErrNoDatabase rather than panic, so the service can keep serving
// recognition requests.
func TestOperationsWithoutDatabase(t *testing.T) {
	if Pool != nil {
		t.Skip("database pool unexpectedly configured")
	}
	ctx := context.Background()

	if err := SaveReport(ctx, &Report{Filename: "doc.png"}); !errors.Is(err, ErrNoDatabase) {
		t.Errorf("SaveReport error = %v, want ErrNoDatabase", err)
	}
	if _, _, err := GetReports(ctx, "", 10, 0); !errors.Is(err, ErrNoDatabase) {
		t.Errorf("GetReports error = %v, want ErrNoDatabase", err)
	}
	if _, err := GetReportByID(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, ErrNoDatabase) {
		t.Errorf("GetReportByID error = %v, want ErrNoDatabase", err)
	}
	if err := DeleteReport(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, ErrNoDatabase) {
		t.Errorf("DeleteReport error = %v, want ErrNoDatabase", err)
	}
	if _, err := GetMonthlyStats(ctx, ""); !errors.Is(err, ErrNoDatabase) {
		t.Errorf("GetMonthlyStats error = %v, want ErrNoDatabase", err)
	}
	if Available() {
		t.Error("Available() = true without a pool")
	}
}

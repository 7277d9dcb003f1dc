package cron

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/sweetshop-backend/internal/inventory"
	"github.com/angelmondragon/sweetshop-backend/pkg/enums"
)

type fakeReader struct {
	rows []inventory.LowStockRow
	err  error
}

func (f *fakeReader) LowStock(ctx context.Context) ([]inventory.LowStockRow, error) {
	return f.rows, f.err
}

type recordingAlerter struct {
	seen    []string
	failFor string
}

func (a *recordingAlerter) AlertLowStock(ctx context.Context, row inventory.LowStockRow) error {
	a.seen = append(a.seen, row.SweetName)
	if row.SweetName == a.failFor {
		return errors.New("webhook unavailable")
	}
	return nil
}

func lowRow(name string, quantity, reorder int) inventory.LowStockRow {
	return inventory.LowStockRow{
		SweetID:      uuid.New(),
		SweetName:    name,
		Category:     enums.SweetCategoryCandy,
		Quantity:     quantity,
		ReorderPoint: reorder,
	}
}

func TestLowStockJobAlertsEveryRow(t *testing.T) {
	reader := &fakeReader{rows: []inventory.LowStockRow{
		lowRow("Fudge", 0, 10),
		lowRow("Toffee", 3, 10),
	}}
	alerter := &recordingAlerter{}
	job, err := NewLowStockJob(LowStockJobParams{
		Logger:    testLogger(),
		Inventory: reader,
		Alerter:   alerter,
	})
	if err != nil {
		t.Fatalf("NewLowStockJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(alerter.seen) != 2 {
		t.Fatalf("alerted %d rows, want 2", len(alerter.seen))
	}
}

func TestLowStockJobContinuesPastAlertFailure(t *testing.T) {
	reader := &fakeReader{rows: []inventory.LowStockRow{
		lowRow("Fudge", 0, 10),
		lowRow("Toffee", 3, 10),
		lowRow("Nougat", 5, 10),
	}}
	alerter := &recordingAlerter{failFor: "Toffee"}
	job, err := NewLowStockJob(LowStockJobParams{
		Logger:    testLogger(),
		Inventory: reader,
		Alerter:   alerter,
	})
	if err != nil {
		t.Fatalf("NewLowStockJob: %v", err)
	}

	runErr := job.Run(context.Background())
	if runErr == nil {
		t.Fatal("expected combined error when one alert fails")
	}
	if !strings.Contains(runErr.Error(), "Toffee") {
		t.Fatalf("error %q does not name the failing sweet", runErr)
	}
	if len(alerter.seen) != 3 {
		t.Fatalf("alerted %d rows, want all 3 despite the failure", len(alerter.seen))
	}
}

func TestLowStockJobScanError(t *testing.T) {
	reader := &fakeReader{err: errors.New("db gone")}
	job, err := NewLowStockJob(LowStockJobParams{
		Logger:    testLogger(),
		Inventory: reader,
		Alerter:   &recordingAlerter{},
	})
	if err != nil {
		t.Fatalf("NewLowStockJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected scan error to propagate")
	}
}

func TestLogAlerterNeverFails(t *testing.T) {
	alerter, err := NewLogAlerter(testLogger())
	if err != nil {
		t.Fatalf("NewLogAlerter: %v", err)
	}
	if err := alerter.AlertLowStock(context.Background(), lowRow("Fudge", 0, 10)); err != nil {
		t.Fatalf("AlertLowStock: %v", err)
	}
}

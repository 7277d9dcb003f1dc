package cron

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/sweetshop-backend/internal/inventory"
	"github.com/angelmondragon/sweetshop-backend/pkg/logger"
)

// lowStockReader provides the inventory rows the job scans.
type lowStockReader interface {
	LowStock(ctx context.Context) ([]inventory.LowStockRow, error)
}

// Alerter receives one notification per sweet at or below its reorder point.
type Alerter interface {
	AlertLowStock(ctx context.Context, row inventory.LowStockRow) error
}

// LowStockJobParams configure the low stock scan job.
type LowStockJobParams struct {
	Logger    *logger.Logger
	Inventory lowStockReader
	Alerter   Alerter
}

// LowStockJob periodically flags sweets whose stock fell to the reorder
// point so staff can restock before sales start failing.
type LowStockJob struct {
	logg      *logger.Logger
	inventory lowStockReader
	alerter   Alerter
}

// NewLowStockJob builds the low stock scan job.
func NewLowStockJob(params LowStockJobParams) (*LowStockJob, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Inventory == nil {
		return nil, errors.New("inventory reader required")
	}
	if params.Alerter == nil {
		return nil, errors.New("alerter required")
	}
	return &LowStockJob{
		logg:      params.Logger,
		inventory: params.Inventory,
		alerter:   params.Alerter,
	}, nil
}

// Name implements Job.
func (j *LowStockJob) Name() string { return "low_stock_scan" }

// Run scans for low stock and alerts per row. One failing alert does not
// stop the rest; all failures are combined into the returned error.
func (j *LowStockJob) Run(ctx context.Context) error {
	rows, err := j.inventory.LowStock(ctx)
	if err != nil {
		return fmt.Errorf("scan low stock: %w", err)
	}
	if len(rows) == 0 {
		j.logg.Info(ctx, "no sweets at or below reorder point")
		return nil
	}

	var combined error
	for _, row := range rows {
		if alertErr := j.alerter.AlertLowStock(ctx, row); alertErr != nil {
			combined = multierr.Append(combined, fmt.Errorf("alert %s: %w", row.SweetName, alertErr))
		}
	}
	fields := map[string]any{
		"low_stock_count": len(rows),
	}
	j.logg.Info(j.logg.WithFields(ctx, fields), "low stock scan complete")
	return combined
}

// LogAlerter reports low stock through the structured log stream. It is
// the default sink until a real notification channel exists.
type LogAlerter struct {
	logg *logger.Logger
}

// NewLogAlerter builds a log-backed alerter.
func NewLogAlerter(logg *logger.Logger) (*LogAlerter, error) {
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &LogAlerter{logg: logg}, nil
}

// AlertLowStock implements Alerter.
func (a *LogAlerter) AlertLowStock(ctx context.Context, row inventory.LowStockRow) error {
	ctx = a.logg.WithFields(ctx, map[string]any{
		"sweet_id":      row.SweetID.String(),
		"sweet_name":    row.SweetName,
		"category":      string(row.Category),
		"quantity":      row.Quantity,
		"reorder_point": row.ReorderPoint,
	})
	a.logg.Warn(ctx, "sweet at or below reorder point")
	return nil
}

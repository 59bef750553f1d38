package scheduler

import (
	"context"
	"time"

	"fundflow/internal/importer"
	"fundflow/internal/marketdata"
	"fundflow/internal/models"
)

// StatementScanJob imports any new broker statements found in the drop
// directory.
type StatementScanJob struct {
	Importer *importer.Importer
	UserID   uint
	Broker   models.BrokerCode
	Dir      string
}

func (j *StatementScanJob) Name() string { return "statement-scan" }

func (j *StatementScanJob) Run() error {
	return j.Importer.ScanDirectory(j.UserID, j.Broker, j.Dir)
}

// PriceRefreshJob updates live prices for every asset with open exposure.
type PriceRefreshJob struct {
	Refresher *marketdata.Refresher
	Timeout   time.Duration
}

func (j *PriceRefreshJob) Name() string { return "price-refresh" }

func (j *PriceRefreshJob) Run() error {
	timeout := j.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return j.Refresher.RefreshAll(ctx)
}

package importer

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	apperrors "fundflow/internal/errors"
	"fundflow/internal/logger"
	"fundflow/internal/models"
	"fundflow/internal/services"
	"fundflow/internal/uuid"
)

// Importer drives parsed statements through the trade and holding pipelines.
// Every run is recorded as an ImportBatch; option trades are submitted with
// duplicate skipping so the same statement can be imported twice without
// double-counting.
type Importer struct {
	db       *gorm.DB
	registry *Registry
	brokers  services.BrokerServicer
	funds    services.FundServicer
	trades   services.TradeServicer
	holdings services.HoldingServicer
}

// New creates an Importer.
func New(db *gorm.DB, registry *Registry, brokers services.BrokerServicer, funds services.FundServicer, trades services.TradeServicer, holdings services.HoldingServicer) *Importer {
	return &Importer{
		db:       db,
		registry: registry,
		brokers:  brokers,
		funds:    funds,
		trades:   trades,
		holdings: holdings,
	}
}

// ImportStatement parses one statement and records its trades for the user.
// Rows that fail to import are skipped and counted, never aborting the rest
// of the statement. The returned batch reports what happened.
func (i *Importer) ImportStatement(userID uint, code models.BrokerCode, fileName string, r io.Reader) (*models.ImportBatch, error) {
	parser, err := i.registry.Get(code)
	if err != nil {
		return nil, err
	}

	batch := &models.ImportBatch{
		ID:         uuid.New(),
		BrokerCode: code,
		FileName:   fileName,
		Status:     models.ImportBatchCompleted,
	}

	statement, err := parser.Parse(r)
	if err != nil {
		batch.Status = models.ImportBatchFailed
		batch.Error = err.Error()
		if createErr := i.db.Create(batch).Error; createErr != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, createErr)
		}
		return batch, err
	}
	batch.Skipped = statement.Malformed

	if err := i.db.Create(batch).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	broker, err := i.brokers.GetOrCreateBrokerAccount(i.db, userID, code)
	if err != nil {
		return nil, err
	}

	for _, row := range statement.OptionRows {
		fund, err := i.funds.GetOrCreateFund(i.db, row.Underlying, broker.ID)
		if err != nil {
			return nil, err
		}

		result, err := i.trades.SubmitTrade(services.SubmitTradeInput{
			FundID:        fund.ID,
			Symbol:        row.Symbol,
			Type:          row.Type,
			Quantity:      row.Quantity,
			Price:         row.Price,
			Commission:    row.Commission,
			Date:          row.Date,
			ImportBatchID: &batch.ID,
			SkipDuplicate: true,
		})
		if err != nil {
			batch.Skipped++
			logger.Get().Warnw("skipping option trade",
				"symbol", row.Symbol,
				"batch_id", batch.ID,
				"error", err,
			)
			continue
		}
		if result.Created {
			batch.Processed++
		} else {
			batch.Skipped++
		}
	}

	for _, row := range statement.EquityRows {
		var err error
		if row.Buy {
			_, err = i.holdings.RecordBuy(userID, broker.ID, row.Symbol, row.Quantity, row.Price)
		} else {
			_, err = i.holdings.RecordSell(userID, broker.ID, row.Symbol, row.Quantity, row.Price)
		}
		if err != nil {
			batch.Skipped++
			logger.Get().Warnw("skipping stock trade",
				"symbol", row.Symbol,
				"batch_id", batch.ID,
				"error", err,
			)
			continue
		}
		batch.Processed++
	}

	if err := i.db.Model(batch).
		Updates(map[string]interface{}{"processed": batch.Processed, "skipped": batch.Skipped}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Get().Infow("imported statement",
		"batch_id", batch.ID,
		"broker", code,
		"file", fileName,
		"processed", batch.Processed,
		"skipped", batch.Skipped,
	)
	return batch, nil
}

// ImportFile imports one statement file from disk.
func (i *Importer) ImportFile(userID uint, code models.BrokerCode, path string) (*models.ImportBatch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStatement, err)
	}
	defer f.Close()

	return i.ImportStatement(userID, code, filepath.Base(path), f)
}

// ScanDirectory imports every CSV in dir that has not been imported before,
// matching by file name. The scheduler calls this on the import schedule.
func (i *Importer) ScanDirectory(userID uint, code models.BrokerCode, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStatement, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}

		var seen int64
		if err := i.db.Model(&models.ImportBatch{}).
			Where("file_name = ? AND status = ?", entry.Name(), models.ImportBatchCompleted).
			Count(&seen).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if seen > 0 {
			continue
		}

		if _, err := i.ImportFile(userID, code, filepath.Join(dir, entry.Name())); err != nil {
			logger.Get().Errorw("statement import failed",
				"file", entry.Name(),
				"error", err,
			)
		}
	}
	return nil
}

// GetBatch returns one import batch by ID.
func (i *Importer) GetBatch(batchID string) (*models.ImportBatch, error) {
	var batch models.ImportBatch
	if err := i.db.First(&batch, "id = ?", batchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &batch, nil
}

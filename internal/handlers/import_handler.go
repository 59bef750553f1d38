package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "fundflow/internal/errors"
	"fundflow/internal/importer"
	"fundflow/internal/models"
	"fundflow/internal/services"
)

// ImportHandler handles broker statement uploads.
type ImportHandler struct {
	importer     *importer.Importer
	auditService services.AuditServicer
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(imp *importer.Importer, auditService services.AuditServicer) *ImportHandler {
	return &ImportHandler{importer: imp, auditService: auditService}
}

// UploadStatement ingests one broker statement file sent as multipart form
// data. The broker_code form field selects the parser. Re-uploading the same
// statement skips trades already in the ledger.
func (h *ImportHandler) UploadStatement(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	code := models.BrokerCode(c.PostForm("broker_code"))
	if code == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "broker_code is required"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidInput, err))
		return
	}
	defer file.Close()

	batch, err := h.importer.ImportStatement(userID, code, fileHeader.Filename, file)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "IMPORT_STATEMENT", "import_batch", 0, c.ClientIP(),
		map[string]interface{}{
			"batch_id":  batch.ID,
			"file_name": batch.FileName,
			"processed": batch.Processed,
			"skipped":   batch.Skipped,
		})

	c.JSON(http.StatusCreated, gin.H{"batch": batch})
}

// GetBatch returns one import batch by ID.
func (h *ImportHandler) GetBatch(c *gin.Context) {
	batchID := c.Param("id")
	if batchID == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid id"))
		return
	}

	batch, err := h.importer.GetBatch(batchID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"batch": batch})
}

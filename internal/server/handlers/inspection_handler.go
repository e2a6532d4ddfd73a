package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/checksheet/internal/apperrors"
	"github.com/mamadbah2/checksheet/internal/service/reporting"
	"github.com/mamadbah2/checksheet/internal/service/session"
)

// InspectionHandler exposes the worker session workflow over HTTP.
type InspectionHandler struct {
	workflow *session.Workflow
	reports  *reporting.Service
	logger   *zap.Logger
}

// NewInspectionHandler constructs the HTTP handler adapter.
func NewInspectionHandler(workflow *session.Workflow, reports *reporting.Service, logger *zap.Logger) *InspectionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InspectionHandler{workflow: workflow, reports: reports, logger: logger}
}

type startRequest struct {
	UserID int `json:"userId" binding:"required,gt=0"`
}

type scanRequest struct {
	Payload string `json:"payload" binding:"required"`
}

type containerRequest struct {
	TrackingNumber string `json:"trackingNumber" binding:"required"`
}

type upcRequest struct {
	UPC string `json:"upc" binding:"required"`
}

type keysRequest struct {
	Keys string `json:"keys" binding:"required"`
}

// ListUsers returns the workers that may open a session.
func (h *InspectionHandler) ListUsers(c *gin.Context) {
	users, err := h.workflow.Users(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// StartSession opens a session for a worker.
func (h *InspectionHandler) StartSession(c *gin.Context) {
	var req startRequest
	if !h.bind(c, &req) {
		return
	}
	view, err := h.workflow.Start(c.Request.Context(), req.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// GetSession returns the session state.
func (h *InspectionHandler) GetSession(c *gin.Context) {
	view, err := h.workflow.View(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// EndSession closes a session.
func (h *InspectionHandler) EndSession(c *gin.Context) {
	if err := h.workflow.End(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Scan resolves a carton label.
func (h *InspectionHandler) Scan(c *gin.Context) {
	var req scanRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.workflow.Scan(c.Request.Context(), c.Param("id"), req.Payload)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SelectContainer picks among the containers holding the scanned item.
func (h *InspectionHandler) SelectContainer(c *gin.Context) {
	var req containerRequest
	if !h.bind(c, &req) {
		return
	}
	view, err := h.workflow.SelectContainer(c.Param("id"), req.TrackingNumber)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Properties lists the catalog with starting values.
func (h *InspectionHandler) Properties(c *gin.Context) {
	props, err := h.workflow.Properties(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, props)
}

// SaveCheck records one property check.
func (h *InspectionHandler) SaveCheck(c *gin.Context) {
	var req session.CheckInput
	if !h.bind(c, &req) {
		return
	}
	out, err := h.workflow.SaveCheck(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Summary returns the latest-check summary.
func (h *InspectionHandler) Summary(c *gin.Context) {
	sum, err := h.workflow.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// Export appends the summary to the spreadsheet.
func (h *InspectionHandler) Export(c *gin.Context) {
	n, err := h.workflow.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": n})
}

// Status returns per-item progress of the container.
func (h *InspectionHandler) Status(c *gin.Context) {
	progress, err := h.workflow.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// Finalize evaluates the container.
func (h *InspectionHandler) Finalize(c *gin.Context) {
	res, err := h.workflow.Finalize(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// StartPacking opens the packing-order verifier.
func (h *InspectionHandler) StartPacking(c *gin.Context) {
	snap, err := h.workflow.StartPacking(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

// PackingScan submits one UPC.
func (h *InspectionHandler) PackingScan(c *gin.Context) {
	var req upcRequest
	if !h.bind(c, &req) {
		return
	}
	rec, snap, err := h.workflow.PackingScan(c.Request.Context(), c.Param("id"), req.UPC)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scan": rec, "snapshot": snap})
}

// PackingKeys submits raw scanner keystrokes.
func (h *InspectionHandler) PackingKeys(c *gin.Context) {
	var req keysRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.workflow.PackingKeys(c.Request.Context(), c.Param("id"), req.Keys)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// PackingReset clears packing progress.
func (h *InspectionHandler) PackingReset(c *gin.Context) {
	snap, err := h.workflow.PackingReset(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// PackingSnapshot returns the packing-order state.
func (h *InspectionHandler) PackingSnapshot(c *gin.Context) {
	snap, err := h.workflow.PackingSnapshot(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Evaluations lists archived finalize attempts of a container.
func (h *InspectionHandler) Evaluations(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil || limit < 0 {
		h.fail(c, apperrors.New(apperrors.KindValidation, "limit must be a non-negative integer"))
		return
	}
	records, err := h.reports.Evaluations(c.Request.Context(), c.Param("code"), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// Exports lists summary rows previously exported for a container.
func (h *InspectionHandler) Exports(c *gin.Context) {
	rows, err := h.reports.ExportHistory(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *InspectionHandler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Warn("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": apperrors.KindValidation, "message": "invalid request body"})
		return false
	}
	return true
}

// fail maps a classified error to its status. Unclassified errors are
// reported with the generic internal message.
func (h *InspectionHandler) fail(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	meta := apperrors.MetadataFor(kind)

	message := meta.PublicMessage
	if typed := apperrors.As(err); typed != nil && kind != apperrors.KindInternal {
		message = typed.Message()
	}

	fields := []zap.Field{zap.String("path", c.FullPath()), zap.String("kind", string(kind)), zap.Error(err)}
	if meta.HTTPStatus >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Warn("request rejected", fields...)
	}

	c.JSON(meta.HTTPStatus, gin.H{"error": kind, "message": message, "transient": meta.Transient})
}

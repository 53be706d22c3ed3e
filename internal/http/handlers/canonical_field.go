package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Greg-CS/document-parser-sub001/internal/http/response"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/logger"
	"github.com/Greg-CS/document-parser-sub001/internal/services"
)

type CanonicalFieldHandler struct {
	log      *logger.Logger
	registry services.MappingRegistry
}

func NewCanonicalFieldHandler(log *logger.Logger, registry services.MappingRegistry) *CanonicalFieldHandler {
	return &CanonicalFieldHandler{log: log.With("handler", "CanonicalFieldHandler"), registry: registry}
}

// GET /api/canonical-fields
func (h *CanonicalFieldHandler) List(c *gin.Context) {
	fields, err := h.registry.ListCanonicalFields(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"fields": fields})
}

type upsertCanonicalFieldsRequest struct {
	Fields []services.CanonicalFieldInput `json:"fields"`
}

// PUT /api/canonical-fields
func (h *CanonicalFieldHandler) Upsert(c *gin.Context) {
	var req upsertCanonicalFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	fields, err := h.registry.UpsertCanonicalFields(c.Request.Context(), req.Fields)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	h.log.Info("canonical fields upserted", "count", len(fields))
	response.RespondOK(c, gin.H{"fields": fields})
}

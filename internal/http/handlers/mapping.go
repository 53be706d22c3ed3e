package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Greg-CS/document-parser-sub001/internal/http/response"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/ctxutil"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/logger"
	"github.com/Greg-CS/document-parser-sub001/internal/services"
)

type MappingHandler struct {
	log      *logger.Logger
	registry services.MappingRegistry
}

func NewMappingHandler(log *logger.Logger, registry services.MappingRegistry) *MappingHandler {
	return &MappingHandler{log: log.With("handler", "MappingHandler"), registry: registry}
}

// GET /api/mappings/:sourceType
func (h *MappingHandler) Get(c *gin.Context) {
	set, err := h.registry.MappingsFor(c.Request.Context(), c.Param("sourceType"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, set)
}

// PUT /api/mappings
func (h *MappingHandler) Upsert(c *gin.Context) {
	var req services.UpsertMappingsInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.registry.UpsertMappings(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	h.log.Info("mapping batch accepted",
		"source_type", res.SourceType,
		"upserted", res.Upserted,
		"mapping_set", res.Set.Hash,
		"admin_subject", ctxutil.AdminSubject(c.Request.Context()),
	)
	response.RespondOK(c, gin.H{
		"sourceType": res.SourceType,
		"upserted":   res.Upserted,
		"mappingSet": res.Set,
	})
}

// DELETE /api/mappings/:id
func (h *MappingHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_mapping_id", err)
		return
	}
	if err := h.registry.DeactivateMapping(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"id": id, "deactivated": true})
}

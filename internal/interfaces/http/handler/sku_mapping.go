package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	integrationapp "github.com/skuswap/backend/internal/application/integration"
	"github.com/skuswap/backend/internal/domain/integration"
	"github.com/skuswap/backend/internal/interfaces/http/middleware"
)

// SkuMappingHandler handles SKU mapping admin endpoints
type SkuMappingHandler struct {
	BaseHandler
	mappingService *integrationapp.SkuMappingService
}

// NewSkuMappingHandler creates a new SkuMappingHandler
func NewSkuMappingHandler(mappingService *integrationapp.SkuMappingService) *SkuMappingHandler {
	return &SkuMappingHandler{
		mappingService: mappingService,
	}
}

// SkuMappingListQuery holds the list filters
type SkuMappingListQuery struct {
	Active *bool  `form:"active"`
	Search string `form:"search" binding:"max=255"`
	Tag    string `form:"tag" binding:"max=100"`
}

// List godoc
//
//	@ID				listSkuMappings
//	@Summary		List SKU mappings
//	@Description	Newest first, optionally filtered by active flag, SKU substring or tag
//	@Tags			sku-mappings
//	@Produce		json
//	@Param			active	query		bool	false	"Only active or inactive mappings"
//	@Param			search	query		string	false	"SKU substring"
//	@Param			tag		query		string	false	"Trigger tag"
//	@Success		200		{object}	dto.Response
//	@Router			/sku-mappings [get]
func (h *SkuMappingHandler) List(c *gin.Context) {
	var q SkuMappingListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	mappings, err := h.mappingService.ListMappings(c.Request.Context(), integration.SkuMappingFilter{
		Active: q.Active,
		Search: q.Search,
		Tag:    q.Tag,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, mappings)
}

// Get godoc
//
//	@ID			getSkuMapping
//	@Summary	Get a SKU mapping
//	@Tags		sku-mappings
//	@Produce	json
//	@Param		id	path		string	true	"Mapping ID"
//	@Success	200	{object}	dto.Response
//	@Failure	404	{object}	dto.Response
//	@Router		/sku-mappings/{id} [get]
func (h *SkuMappingHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	mapping, err := h.mappingService.GetMapping(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, mapping)
}

// Create godoc
//
//	@ID			createSkuMapping
//	@Summary	Create a SKU mapping
//	@Tags		sku-mappings
//	@Accept		json
//	@Produce	json
//	@Param		request	body		integrationapp.CreateSkuMappingRequest	true	"Mapping"
//	@Success	201		{object}	dto.Response
//	@Failure	400		{object}	dto.Response
//	@Failure	409		{object}	dto.Response
//	@Router		/sku-mappings [post]
func (h *SkuMappingHandler) Create(c *gin.Context) {
	var req integrationapp.CreateSkuMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	mapping, err := h.mappingService.CreateMapping(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, mapping)
}

// Update godoc
//
//	@ID			updateSkuMapping
//	@Summary	Update a SKU mapping
//	@Description	Only the fields present in the body change
//	@Tags		sku-mappings
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string									true	"Mapping ID"
//	@Param		request	body		integrationapp.UpdateSkuMappingRequest	true	"Changes"
//	@Success	200		{object}	dto.Response
//	@Failure	404		{object}	dto.Response
//	@Router		/sku-mappings/{id} [put]
func (h *SkuMappingHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req integrationapp.UpdateSkuMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	mapping, err := h.mappingService.UpdateMapping(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, mapping)
}

// Delete godoc
//
//	@ID			deleteSkuMapping
//	@Summary	Delete a SKU mapping
//	@Tags		sku-mappings
//	@Param		id	path	string	true	"Mapping ID"
//	@Success	204
//	@Failure	404	{object}	dto.Response
//	@Router		/sku-mappings/{id} [delete]
func (h *SkuMappingHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.mappingService.DeleteMapping(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// BulkUpsert godoc
//
//	@ID				bulkUpsertSkuMappings
//	@Summary		Create or update many SKU mappings
//	@Description	Entries are matched by originalSku; failures are reported per entry
//	@Tags			sku-mappings
//	@Accept			json
//	@Produce		json
//	@Param			request	body		integrationapp.BulkUpsertSkuMappingsRequest	true	"Mappings"
//	@Success		200		{object}	dto.Response
//	@Router			/sku-mappings/bulk [post]
func (h *SkuMappingHandler) BulkUpsert(c *gin.Context) {
	var req integrationapp.BulkUpsertSkuMappingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.mappingService.BulkUpsert(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *SkuMappingHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid mapping ID format")
		return uuid.Nil, false
	}
	return id, true
}

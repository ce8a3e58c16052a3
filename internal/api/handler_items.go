package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"wear-and-tear-backend/internal/form"
	"wear-and-tear-backend/internal/parse"
	"wear-and-tear-backend/internal/store"
	"wear-and-tear-backend/internal/wear"
)

// ListAllItems handles GET /api/items.
func (h *Handler) ListAllItems(c *gin.Context) {
	items, err := h.items.ItemsForList(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// ListItems handles GET /api/configs/{config_id}/items. An unknown record has no items.
func (h *Handler) ListItems(c *gin.Context) {
	items, err := h.items.Items(c.Request.Context(), c.Param("config_id"))
	if errors.Is(err, store.ErrConfigNotFound) {
		c.JSON(http.StatusOK, []wear.Item{})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// bindItemValue decodes and validates the form value in the request body. On
// create a starting point group, when the form has one, must be complete.
func (h *Handler) bindItemValue(c *gin.Context, creating bool) (wear.Record, bool) {
	var value form.Value
	if err := c.ShouldBindJSON(&value); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return wear.Record{}, false
	}
	if err := value.Validate(creating && value.StartingPoint != nil, h.loc); err != nil {
		respondError(c, err)
		return wear.Record{}, false
	}
	record, err := value.ToRecord(h.loc)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return wear.Record{}, false
	}
	return record, true
}

// AddItem handles POST /api/configs/{config_id}/items. The record is created
// when it does not exist yet.
func (h *Handler) AddItem(c *gin.Context) {
	configID := c.Param("config_id")
	record, ok := h.bindItemValue(c, true)
	if !ok {
		return
	}

	cfg, err := h.store.GetConfig(c.Request.Context(), configID)
	if errors.Is(err, store.ErrConfigNotFound) {
		cfg = &wear.AppConfig{PublicID: configID}
	} else if err != nil {
		respondError(c, err)
		return
	}

	id, err := h.items.AddItem(c.Request.Context(), *cfg, record)
	if err != nil {
		respondError(c, err)
		return
	}
	h.cache.Flush()
	c.JSON(http.StatusCreated, gin.H{"_id": id})
}

// UpdateItem handles PUT /api/configs/{config_id}/items/{item_id}.
func (h *Handler) UpdateItem(c *gin.Context) {
	record, ok := h.bindItemValue(c, false)
	if !ok {
		return
	}

	cfg, err := h.store.GetConfig(c.Request.Context(), c.Param("config_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.items.UpdateItem(c.Request.Context(), *cfg, c.Param("item_id"), record); err != nil {
		respondError(c, err)
		return
	}
	h.cache.Flush()
	c.Status(http.StatusNoContent)
}

// DeleteItem handles DELETE /api/configs/{config_id}/items/{item_id}.
func (h *Handler) DeleteItem(c *gin.Context) {
	cfg, err := h.store.GetConfig(c.Request.Context(), c.Param("config_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.items.RemoveItem(c.Request.Context(), *cfg, c.Param("item_id")); err != nil {
		respondError(c, err)
		return
	}
	h.cache.Flush()
	c.Status(http.StatusNoContent)
}

type resetItemRequest struct {
	// ResetOn is an ISO date or date-time. Empty means now.
	ResetOn string `json:"resetOn"`
}

// ResetItem handles POST /api/configs/{config_id}/items/{item_id}/reset.
func (h *Handler) ResetItem(c *gin.Context) {
	var req resetItemRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
	}

	resetOn := h.now().UnixMilli()
	if req.ResetOn != "" {
		ms, err := parse.ParseISODate(req.ResetOn, h.loc)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		resetOn = ms
	}

	if err := h.items.ResetItem(c.Request.Context(), c.Param("config_id"), c.Param("item_id"), resetOn); err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	h.cache.Flush()
	c.JSON(http.StatusOK, gin.H{"resetOn": resetOn})
}

// findItem resolves the item named by the route or answers 404.
func (h *Handler) findItem(c *gin.Context) (wear.Item, bool) {
	item, found, err := h.items.Item(c.Request.Context(), c.Param("config_id"), c.Param("item_id"))
	if err != nil {
		respondError(c, err)
		return wear.Item{}, false
	}
	if !found {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return wear.Item{}, false
	}
	return item, true
}

// GetItemStatus handles GET /api/configs/{config_id}/items/{item_id}/status.
func (h *Handler) GetItemStatus(c *gin.Context) {
	item, ok := h.findItem(c)
	if !ok {
		return
	}
	status, err := h.items.ItemStatus(c.Request.Context(), item, h.now())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetItemForm handles GET /api/configs/{config_id}/items/{item_id}/form and
// returns the edit form together with the item's current value.
func (h *Handler) GetItemForm(c *gin.Context) {
	item, ok := h.findItem(c)
	if !ok {
		return
	}
	hasStartingPoint := item.CycleStartDate != nil && *item.CycleStartDate != 0
	c.JSON(http.StatusOK, gin.H{
		"inputs": form.BuildInputs(h.tr, true, hasStartingPoint, h.now(), h.loc),
		"value":  form.FromItem(item, h.loc),
	})
}

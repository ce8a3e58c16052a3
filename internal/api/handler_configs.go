package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"wear-and-tear-backend/internal/ixapi"
	"wear-and-tear-backend/internal/store"
)

// GetAssetAppConfig handles GET /api/asset-app-configs/{public_id}?fields=.
// Sequences are returned as JSON strings; fields limits which are included.
func (h *Handler) GetAssetAppConfig(c *gin.Context) {
	raw, err := h.store.GetRawConfig(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	wanted := func(string) bool { return true }
	if fields := c.Query("fields"); fields != "" {
		set := make(map[string]bool)
		for _, f := range strings.Split(fields, ",") {
			set[strings.TrimSpace(f)] = true
		}
		wanted = func(f string) bool { return set[f] }
	}

	data := ixapi.AssetAppConfig{PublicID: raw.PublicID}
	if wanted("values") {
		values := string(raw.Values)
		data.Values = &values
	}
	if wanted("stateValues") {
		state := string(raw.StateValues)
		data.StateValues = &state
	}

	c.JSON(http.StatusOK, ixapi.Response[ixapi.AssetAppConfig]{
		Type:   "AssetAppConfig",
		Status: "success",
		Data:   data,
	})
}

// PatchAssetAppConfig handles PATCH /api/asset-app-configs. Only the
// sequences present in the body are replaced.
func (h *Handler) PatchAssetAppConfig(c *gin.Context) {
	var req ixapi.AssetAppConfig
	if err := c.ShouldBindJSON(&req); err != nil || req.PublicID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := h.store.PatchConfig(c.Request.Context(), store.ConfigPatch{
		PublicID:    req.PublicID,
		Values:      req.Values,
		StateValues: req.StateValues,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.cache.Flush()
	c.JSON(http.StatusOK, ixapi.Response[ixapi.AssetAppConfig]{Type: "AssetAppConfig", Status: "success", Data: req})
}

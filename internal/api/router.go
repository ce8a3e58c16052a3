package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"wear-and-tear-backend/config"
	"wear-and-tear-backend/internal/ixapi"
	"wear-and-tear-backend/internal/metrics"
	"wear-and-tear-backend/internal/mw"
	"wear-and-tear-backend/internal/service"
	"wear-and-tear-backend/internal/store"
	"wear-and-tear-backend/internal/wear"
)

// NewRouter creates and configures a new Gin router. m may be nil, in which
// case /metrics is not served.
func NewRouter(cfg *config.Config, s store.Store, items *service.Service, tr wear.Translator, webpushOptions *webpush.Options, m *metrics.Metrics) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, items, tr, cfg.Location(), webpushOptions)

	// Initialize middleware
	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst, mw.ClientKey)

	responseCache := mw.NewResponseCache(time.Duration(cfg.Server.CacheTTLSeconds) * time.Second)
	handler.cache = responseCache
	caching := responseCache.Middleware()

	platformAuth := mw.APIAuth(ixapi.Credentials{
		AppID:       cfg.Platform.AppID,
		APIVersion:  cfg.Platform.APIVersion,
		CompanyID:   cfg.Platform.CompanyID,
		AccessToken: cfg.Platform.AccessToken,
	})

	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/items", caching, handler.ListAllItems)
		api.GET("/form", caching, handler.GetForm)

		configs := api.Group("/configs/:config_id")
		configs.GET("/items", caching, handler.ListItems)
		configs.POST("/items", handler.AddItem)
		configs.PUT("/items/:item_id", handler.UpdateItem)
		configs.DELETE("/items/:item_id", handler.DeleteItem)
		configs.POST("/items/:item_id/reset", handler.ResetItem)
		configs.GET("/items/:item_id/status", handler.GetItemStatus)
		configs.GET("/items/:item_id/form", handler.GetItemForm)
		configs.GET("/statuses", GetStoredStatuses(s.DB()))

		// Platform-compatible configuration endpoints
		platform := api.Group("/asset-app-configs", platformAuth)
		platform.GET("/:public_id", handler.GetAssetAppConfig)
		platform.PATCH("", handler.PatchAssetAppConfig)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"wear-and-tear-backend/internal/form"
	"wear-and-tear-backend/internal/i18n"
	"wear-and-tear-backend/internal/mw"
	"wear-and-tear-backend/internal/service"
	"wear-and-tear-backend/internal/store"
	"wear-and-tear-backend/internal/wear"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	items   *service.Service
	tr      wear.Translator
	loc     *time.Location
	webpush *webpush.Options
	cache   *mw.ResponseCache
	now     func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, items *service.Service, tr wear.Translator, loc *time.Location, webpushOptions *webpush.Options) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	if tr == nil {
		tr = i18n.NewCatalog(nil)
	}
	return &Handler{
		store:   s,
		items:   items,
		tr:      tr,
		loc:     loc,
		webpush: webpushOptions,
		now:     time.Now,
	}
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var verr *form.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": verr.Fields})
	case errors.Is(err, store.ErrConfigNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrInvalidSequence):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

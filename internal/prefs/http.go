package prefs

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stavlog/stavlog-backend/internal/auth"
	"github.com/stavlog/stavlog-backend/internal/remote"
)

// Syncer applies a synthetic change batch so a preference write takes effect
// in the session snapshot immediately.
type Syncer interface {
	ApplyBatch(ctx context.Context, batch []remote.ChangeEvent)
}

type Handler struct {
	store *Store
	sync  Syncer
}

func Register(rg *gin.RouterGroup, store *Store, sync Syncer) {
	h := &Handler{store: store, sync: sync}

	rg.GET("", h.get)
	rg.PUT("/filter-year", h.setFilterYear)
}

func (h *Handler) get(c *gin.Context) {
	userID := auth.UserFirebaseUID(c)

	year, err := h.store.FilterYear(c.Request.Context(), userID)
	if errors.Is(err, ErrNotSet) {
		year = time.Now().Year()
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	contractor, err := h.store.LastContractor(c.Request.Context(), userID)
	if err != nil && !errors.Is(err, ErrNotSet) {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":                 true,
		"filter_year":        year,
		"last_contractor_id": contractor,
	})
}

type filterYearReq struct {
	Year int `json:"year"`
}

func (h *Handler) setFilterYear(c *gin.Context) {
	var req filterYearReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Year < 2000 || req.Year > 2100 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid year"})
		return
	}

	userID := auth.UserFirebaseUID(c)
	if err := h.store.SetFilterYear(c.Request.Context(), userID, req.Year); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	h.sync.ApplyBatch(c.Request.Context(), []remote.ChangeEvent{
		{Type: remote.EventUpdate, Table: prefsTable, Record: remote.Record{
			"user_id":     userID,
			"filter_year": req.Year,
		}},
	})

	c.JSON(http.StatusOK, gin.H{"ok": true, "filter_year": req.Year})
}

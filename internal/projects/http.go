package projects

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stavlog/stavlog-backend/internal/remote"
)

type Handler struct {
	repo *Repo
}

func Register(rg *gin.RouterGroup, repo *Repo) {
	h := &Handler{repo: repo}

	rg.GET("", h.list)
	rg.GET("/:id", h.get)
	rg.POST("", h.create)
	rg.PATCH("/:id", h.update)
	rg.POST("/:id/archive", h.archive)
	rg.POST("/:id/unarchive", h.unarchive)
	rg.DELETE("/:id", h.delete)
	rg.GET("/:id/rooms", h.rooms)
	rg.POST("/:id/photos", h.addPhoto)
	rg.DELETE("/:id/photos/:photo_id", h.removePhoto)
}

func (h *Handler) list(c *gin.Context) {
	grouped, ok := h.repo.Grouped()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"ok": true, "groups": gin.H{}, "counts": gin.H{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"groups":   grouped.ByCategory,
		"counts":   grouped.Counts,
		"archived": grouped.Archived,
	})
}

func (h *Handler) get(c *gin.Context) {
	p, ok := h.repo.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p, "total": p.Total()})
}

type createReq struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	ContractorID string `json:"contractor_id"`
	ClientID     string `json:"client_id"`
	PriceListID  string `json:"price_list_id"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	created, err := h.repo.Create(c.Request.Context(), Project{
		ContractorID: req.ContractorID,
		ClientID:     req.ClientID,
		Name:         strings.TrimSpace(req.Name),
		Category:     ParseCategory(req.Category),
		PriceListID:  req.PriceListID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": created})
}

func (h *Handler) update(c *gin.Context) {
	var patch remote.Record
	if err := c.ShouldBindJSON(&patch); err != nil || len(patch) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	delete(patch, "id")

	updated, err := h.repo.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "project": updated})
}

func (h *Handler) archive(c *gin.Context) {
	h.setArchived(c, true)
}

func (h *Handler) unarchive(c *gin.Context) {
	h.setArchived(c, false)
}

func (h *Handler) setArchived(c *gin.Context, archived bool) {
	updated, err := h.repo.SetArchived(c.Request.Context(), c.Param("id"), archived)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": updated})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) rooms(c *gin.Context) {
	rs, err := h.repo.Rooms(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "rooms": rs})
}

func (h *Handler) addPhoto(c *gin.Context) {
	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "photo file is required"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unreadable photo file"})
		return
	}
	defer src.Close()

	photo, err := h.repo.AddPhoto(
		c.Request.Context(),
		c.Param("id"),
		file.Filename,
		file.Header.Get("Content-Type"),
		c.PostForm("caption"),
		src,
	)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "photo": photo})
}

func (h *Handler) removePhoto(c *gin.Context) {
	err := h.repo.RemovePhoto(c.Request.Context(), c.Param("id"), c.Param("photo_id"))
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

package rooms

import (
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

	rg.POST("", h.create)
	rg.PATCH("/:id", h.rename)
	rg.DELETE("/:id", h.delete)
	rg.POST("/:id/items", h.addItem)
	rg.PATCH("/items/:item_id", h.updateItem)
	rg.DELETE("/:id/items/:item_id", h.deleteItem)
}

type createReq struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil ||
		strings.TrimSpace(req.Name) == "" || req.ProjectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	created, err := h.repo.Create(c.Request.Context(), Room{
		ProjectID: req.ProjectID,
		Name:      strings.TrimSpace(req.Name),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "room": created})
}

type renameReq struct {
	Name string `json:"name"`
}

func (h *Handler) rename(c *gin.Context) {
	var req renameReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	renamed, err := h.repo.Rename(c.Request.Context(), c.Param("id"), strings.TrimSpace(req.Name))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "room": renamed})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type itemReq struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Unit     string   `json:"unit"`
	Quantity float64  `json:"quantity"`
	Price    float64  `json:"price"`
	Capacity *float64 `json:"capacity"`
}

func (h *Handler) addItem(c *gin.Context) {
	var req itemReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	item, err := h.repo.AddItem(c.Request.Context(), WorkItem{
		RoomID:   c.Param("id"),
		Name:     strings.TrimSpace(req.Name),
		Kind:     req.Kind,
		Unit:     req.Unit,
		Quantity: req.Quantity,
		Price:    req.Price,
		Capacity: req.Capacity,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "item": item, "total": ItemTotal(item)})
}

func (h *Handler) updateItem(c *gin.Context) {
	var patch remote.Record
	if err := c.ShouldBindJSON(&patch); err != nil || len(patch) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	delete(patch, "id")

	item, err := h.repo.UpdateItem(c.Request.Context(), c.Param("item_id"), patch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "item": item, "total": ItemTotal(item)})
}

func (h *Handler) deleteItem(c *gin.Context) {
	if err := h.repo.DeleteItem(c.Request.Context(), c.Param("item_id"), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

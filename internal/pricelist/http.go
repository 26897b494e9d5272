package pricelist

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

	rg.GET("", h.list)
	rg.GET("/general", h.general)
	rg.POST("", h.create)
	rg.PATCH("/:id", h.update)
	rg.DELETE("/:id", h.delete)
	rg.POST("/:id/freeze", h.freeze)
}

func (h *Handler) list(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "price_lists": h.repo.List()})
}

func (h *Handler) general(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "price_list": h.repo.General()})
}

type createReq struct {
	Name          string `json:"name"`
	ContractorID  string `json:"contractor_id"`
	General       bool   `json:"general"`
	Work          []Item `json:"work"`
	Material      []Item `json:"material"`
	Installations []Item `json:"installations"`
	Others        []Item `json:"others"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	created, err := h.repo.Create(c.Request.Context(), PriceList{
		ContractorID:  req.ContractorID,
		Name:          strings.TrimSpace(req.Name),
		General:       req.General,
		Work:          req.Work,
		Material:      req.Material,
		Installations: req.Installations,
		Others:        req.Others,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "price_list": created})
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

	c.JSON(http.StatusOK, gin.H{"ok": true, "price_list": updated})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type freezeReq struct {
	ProjectID string `json:"project_id"`
}

func (h *Handler) freeze(c *gin.Context) {
	var req freezeReq
	if err := c.ShouldBindJSON(&req); err != nil || req.ProjectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	id := c.Param("id")
	var src PriceList
	found := false
	for _, l := range h.repo.List() {
		if l.ID == id {
			src = l
			found = true
			break
		}
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "price list not found"})
		return
	}

	frozen, err := h.repo.Freeze(c.Request.Context(), src, req.ProjectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "price_list": frozen})
}

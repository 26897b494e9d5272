package clients

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
	rg.GET("/:id", h.get)
	rg.POST("", h.create)
	rg.PATCH("/:id", h.update)
	rg.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "clients": h.repo.List()})
}

func (h *Handler) get(c *gin.Context) {
	cl, ok := h.repo.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "client not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "client": cl})
}

type createReq struct {
	ContractorID   string `json:"contractor_id"`
	Name           string `json:"name"`
	RegistrationNo string `json:"registration_no"`
	TaxID          string `json:"tax_id"`
	Address        string `json:"address"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	created, err := h.repo.Create(c.Request.Context(), Client{
		ContractorID:   req.ContractorID,
		Name:           strings.TrimSpace(req.Name),
		RegistrationNo: req.RegistrationNo,
		TaxID:          req.TaxID,
		Address:        req.Address,
		Email:          req.Email,
		Phone:          req.Phone,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "client": created})
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

	c.JSON(http.StatusOK, gin.H{"ok": true, "client": updated})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

package contractors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stavlog/stavlog-backend/internal/auth"
	"github.com/stavlog/stavlog-backend/internal/remote"
)

type Handler struct {
	repo *Repo
}

func Register(rg *gin.RouterGroup, repo *Repo) {
	h := &Handler{repo: repo}

	rg.GET("", h.list)
	rg.POST("", h.create)
	rg.PATCH("/:id", h.update)
	rg.DELETE("/:id", h.delete)
	rg.POST("/:id/switch", h.switchActive)
	rg.PUT("/:id/settings", h.saveSettings)
}

func (h *Handler) list(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "contractors": h.repo.List()})
}

type createReq struct {
	Name           string `json:"name"`
	RegistrationNo string `json:"registration_no"`
	TaxID          string `json:"tax_id"`
	VATID          string `json:"vat_id"`
	Address        string `json:"address"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	IBAN           string `json:"iban"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	contractor := Contractor{
		UserID:         auth.UserFirebaseUID(c),
		Name:           strings.TrimSpace(req.Name),
		RegistrationNo: req.RegistrationNo,
		TaxID:          req.TaxID,
		VATID:          req.VATID,
		Address:        req.Address,
		Email:          req.Email,
		Phone:          req.Phone,
		IBAN:           req.IBAN,
	}
	created, err := h.repo.Create(c.Request.Context(), contractor)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "contractor": created})
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

	c.JSON(http.StatusOK, gin.H{"ok": true, "contractor": updated})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) switchActive(c *gin.Context) {
	userID := auth.UserFirebaseUID(c)
	if err := h.repo.Switch(c.Request.Context(), userID, c.Param("id")); err != nil {
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) saveSettings(c *gin.Context) {
	var req Settings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	saved, err := h.repo.SaveSettings(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "settings": saved})
}

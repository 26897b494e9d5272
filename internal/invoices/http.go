package invoices

import (
	"net/http"
	"time"

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
	rg.POST("", h.issue)
	rg.PATCH("/:id", h.update)
	rg.DELETE("/:id", h.delete)
}

type invoiceView struct {
	Invoice
	Total float64 `json:"total"`
}

func (h *Handler) list(c *gin.Context) {
	invs := h.repo.List()
	out := make([]invoiceView, len(invs))
	for i, inv := range invs {
		out[i] = invoiceView{Invoice: inv, Total: h.repo.DisplayTotal(inv)}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "invoices": out})
}

func (h *Handler) get(c *gin.Context) {
	inv, ok := h.repo.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "invoice not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "invoice": invoiceView{Invoice: inv, Total: h.repo.DisplayTotal(inv)}})
}

type issueReq struct {
	ClientID     string `json:"client_id"`
	ProjectID    string `json:"project_id"`
	Items        []Item `json:"items"`
	MaturityDays int    `json:"maturity_days"`
	IssueDate    string `json:"issue_date"`
}

func (h *Handler) issue(c *gin.Context) {
	var req issueReq
	if err := c.ShouldBindJSON(&req); err != nil || req.ClientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	inv := Invoice{
		ClientID:     req.ClientID,
		ProjectID:    req.ProjectID,
		Items:        req.Items,
		MaturityDays: req.MaturityDays,
	}
	if req.IssueDate != "" {
		t, err := time.Parse("2006-01-02", req.IssueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid issue_date"})
			return
		}
		inv.IssueDate = t
	}

	issued, err := h.repo.Issue(c.Request.Context(), inv)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "invoice": issued})
}

func (h *Handler) update(c *gin.Context) {
	var patch remote.Record
	if err := c.ShouldBindJSON(&patch); err != nil || len(patch) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	delete(patch, "id")
	// stored totals are frozen at issue time
	delete(patch, "price_without_vat")
	delete(patch, "cumulative_vat")

	updated, err := h.repo.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "invoice": updated})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

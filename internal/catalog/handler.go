package catalog

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storeadmin/pkg/models"
)

type Handler struct {
	Repo    *Repo
	Fetcher *Fetcher
	logger  *zap.Logger
}

func NewHandler(repo *Repo, fetcher *Fetcher, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Repo: repo, Fetcher: fetcher, logger: logger.Named("catalog")}
}

// RegisterRoutes expects a group mounted at /sites/:site_id/products.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list)                      // GET /sites/:site_id/products
	rg.GET("/:id", h.getByID)               // GET /sites/:site_id/products/:id
	rg.GET("/:id/variations", h.variations) // GET /sites/:site_id/products/:id/variations
}

// RegisterAdminRoutes mounts the write side on the same prefix. The group is
// expected to sit behind auth.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.PUT("/:id", h.putProduct)                            // PUT /sites/:site_id/products/:id
	rg.PUT("/:id/variations/:variation_id", h.putVariation) // PUT /sites/:site_id/products/:id/variations/:variation_id
}

func (h *Handler) list(c *gin.Context) {
	siteID, ok := idParam(c, "site_id")
	if !ok {
		return
	}
	q := ListQuery{
		Q:      c.Query("q"),
		Type:   c.Query("type"),
		Limit:  parseInt(c.Query("limit"), 20),
		Offset: parseInt(c.Query("offset"), 0),
	}

	total, err := h.Repo.CountProducts(c.Request.Context(), siteID, q)
	if err != nil {
		h.logger.Error("count products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}

	items, err := h.Repo.ListProducts(c.Request.Context(), siteID, q)
	if err != nil {
		h.logger.Error("list products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  q.Limit,
		"offset": q.Offset,
		"items":  items,
	})
}

func (h *Handler) getByID(c *gin.Context) {
	siteID, ok := idParam(c, "site_id")
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	p, err := h.Repo.GetProduct(c.Request.Context(), siteID, id)
	if err != nil {
		h.logger.Error("get product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) variations(c *gin.Context) {
	siteID, ok := idParam(c, "site_id")
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	vs, err := h.Fetcher.Fetch(c.Request.Context(), siteID, id)
	if err != nil {
		h.logger.Error("fetch variations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": vs})
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func (h *Handler) putProduct(c *gin.Context) {
	siteID, ok := idParam(c, "site_id")
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var p models.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p.ID, p.SiteID = id, siteID
	p.Type = models.ParseProductType(string(p.Type))

	if err := h.Repo.UpsertProduct(c.Request.Context(), p); err != nil {
		h.logger.Error("upsert product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	// a type change alters how open rows treat the cached variations
	h.Fetcher.Invalidate(siteID, id)
	c.JSON(http.StatusOK, p)
}

func (h *Handler) putVariation(c *gin.Context) {
	siteID, ok := idParam(c, "site_id")
	if !ok {
		return
	}
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}
	id, ok := idParam(c, "variation_id")
	if !ok {
		return
	}

	var v models.Variation
	if err := c.ShouldBindJSON(&v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	v.ID, v.ProductID = id, productID

	p, err := h.Repo.GetProduct(c.Request.Context(), siteID, productID)
	if err != nil {
		h.logger.Error("get product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}

	if err := h.Repo.UpsertVariation(c.Request.Context(), siteID, v); err != nil {
		h.logger.Error("upsert variation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	h.Fetcher.Invalidate(siteID, productID)
	c.JSON(http.StatusOK, v)
}

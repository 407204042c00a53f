package selection

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	Registry *Registry
	Products ProductSource
	logger   *zap.Logger
}

func NewHandler(registry *Registry, products ProductSource, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Registry: registry, Products: products, logger: logger.Named("selection")}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.create)                            // POST /searches
	rg.GET("/:search_id", h.get)                     // GET /searches/:search_id
	rg.DELETE("/:search_id", h.remove)               // DELETE /searches/:search_id
	rg.POST("/:search_id/rows", h.addRow)            // POST /searches/:search_id/rows
	rg.GET("/:search_id/rows/:product_id", h.getRow) // GET /searches/:search_id/rows/:product_id
	rg.POST("/:search_id/rows/:product_id/attributes", h.resolve)
	rg.POST("/:search_id/rows/:product_id/change", h.change)
	rg.POST("/:search_id/rows/:product_id/customize", h.customize)
}

type createReq struct {
	SiteID   int64   `json:"site_id"`
	Singular bool    `json:"singular"`
	Value    []int64 `json:"value"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.SiteID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "site_id required"})
		return
	}

	s := h.Registry.Create(req.SiteID, req.Singular, req.Value)
	c.JSON(http.StatusCreated, s.View())
}

func (h *Handler) get(c *gin.Context) {
	s, ok := h.search(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.View())
}

func (h *Handler) remove(c *gin.Context) {
	if !h.Registry.Delete(c.Param("search_id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "search not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

type addRowReq struct {
	ProductID int64 `json:"product_id"`
}

func (h *Handler) addRow(c *gin.Context) {
	s, ok := h.search(c)
	if !ok {
		return
	}

	var req addRowReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.ProductID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id required"})
		return
	}

	p, err := h.Products.GetProduct(c.Request.Context(), s.SiteID, req.ProductID)
	if err != nil {
		h.logger.Error("get product", zap.Int64("product", req.ProductID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get product failed"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrProductNotFound.Error()})
		return
	}

	c.JSON(http.StatusOK, s.AddRow(*p))
}

func (h *Handler) getRow(c *gin.Context) {
	s, ok := h.search(c)
	if !ok {
		return
	}
	productID, ok := productParam(c)
	if !ok {
		return
	}

	view, err := s.Row(productID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type resolveReq struct {
	Attributes map[string]string `json:"attributes"`
}

func (h *Handler) resolve(c *gin.Context) {
	s, ok := h.search(c)
	if !ok {
		return
	}
	productID, ok := productParam(c)
	if !ok {
		return
	}

	var req resolveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res, err := s.Resolve(productID, req.Attributes)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type changeReq struct {
	ID int64 `json:"id"`
}

func (h *Handler) change(c *gin.Context) {
	s, ok := h.search(c)
	if !ok {
		return
	}
	productID, ok := productParam(c)
	if !ok {
		return
	}

	var req changeReq
	if err := c.ShouldBindJSON(&req); err != nil || req.ID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id required"})
		return
	}

	res, err := s.Change(productID, req.ID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) customize(c *gin.Context) {
	s, ok := h.search(c)
	if !ok {
		return
	}
	productID, ok := productParam(c)
	if !ok {
		return
	}

	res, err := s.ToggleForm(productID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) search(c *gin.Context) (*Search, bool) {
	s, err := h.Registry.Get(c.Param("search_id"))
	if err != nil {
		writeErr(c, err)
		return nil, false
	}
	return s, true
}

func productParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("product_id")), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product_id"})
		return 0, false
	}
	return id, true
}

func writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrSearchNotFound), errors.Is(err, ErrRowNotFound), errors.Is(err, ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrNotSelectable):
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrNotSelectable.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

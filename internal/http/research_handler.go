package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"advisor-finder/internal/service"
)

// ResearchHandler expone el catalogo de categorias e intereses.
type ResearchHandler struct {
	logger   *zap.Logger
	research *service.ResearchService
}

func NewResearchHandler(logger *zap.Logger, research *service.ResearchService) *ResearchHandler {
	return &ResearchHandler{logger: logger, research: research}
}

// ListCategories maneja GET /api/research/categories.
func (h *ResearchHandler) ListCategories(c *gin.Context) {
	categories, err := h.research.ListCategories(c.Request.Context())
	if err != nil {
		h.logger.Error("list categories failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list categories"})
		return
	}
	c.JSON(http.StatusOK, nonNil(categories))
}

// ListInterests maneja GET /api/research/interests.
func (h *ResearchHandler) ListInterests(c *gin.Context) {
	interests, err := h.research.ListInterests(c.Request.Context())
	if err != nil {
		h.logger.Error("list interests failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list interests"})
		return
	}
	c.JSON(http.StatusOK, nonNil(interests))
}

// InterestsByCategory maneja GET /api/research/interests/category/:categoryId.
func (h *ResearchHandler) InterestsByCategory(c *gin.Context) {
	categoryID, err := service.ParseID(c.Param("categoryId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category id"})
		return
	}
	interests, err := h.research.InterestsByCategory(c.Request.Context(), categoryID)
	if err != nil {
		h.logger.Error("list interests by category failed", zap.Error(err), zap.Int64("category_id", categoryID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list interests"})
		return
	}
	c.JSON(http.StatusOK, nonNil(interests))
}

// SearchInterests maneja GET /api/research/interests/search?keyword=.
func (h *ResearchHandler) SearchInterests(c *gin.Context) {
	interests, err := h.research.SearchInterests(c.Request.Context(), c.Query("keyword"))
	if err != nil {
		h.logger.Error("search interests failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not search interests"})
		return
	}
	c.JSON(http.StatusOK, nonNil(interests))
}

// Facets maneja GET /api/research/facets.
func (h *ResearchHandler) Facets(c *gin.Context) {
	groups, err := h.research.Facets(c.Request.Context())
	if err != nil {
		h.logger.Error("load facets failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load facets"})
		return
	}
	c.JSON(http.StatusOK, groups)
}

// nonNil evita serializar null en listas vacias.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"advisor-finder/internal/metrics"
	"advisor-finder/internal/service"
)

// AdvisorHandler mantiene dependencias para los endpoints del directorio de asesores.
type AdvisorHandler struct {
	logger     *zap.Logger
	search     *service.SearchService
	disclosure *service.DisclosureService
	advisors   *service.AdvisorService
}

func NewAdvisorHandler(
	logger *zap.Logger,
	search *service.SearchService,
	disclosure *service.DisclosureService,
	advisors *service.AdvisorService,
) *AdvisorHandler {
	return &AdvisorHandler{
		logger:     logger,
		search:     search,
		disclosure: disclosure,
		advisors:   advisors,
	}
}

// ListPublic maneja GET /api/lecturers/public.
func (h *AdvisorHandler) ListPublic(c *gin.Context) {
	profiles, err := h.search.ListPublic(c.Request.Context())
	if err != nil {
		h.logger.Error("list profiles failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list lecturers"})
		return
	}
	c.JSON(http.StatusOK, profiles)
}

// Search maneja GET /api/lecturers/search?keyword=&categoryIds=&interestIds=.
// Los ids aceptan parametros repetidos o listas separadas por comas.
func (h *AdvisorHandler) Search(c *gin.Context) {
	h.respondSearch(c, service.SearchInput{
		Term:        c.Query("keyword"),
		CategoryIDs: c.QueryArray("categoryIds"),
		InterestIDs: c.QueryArray("interestIds"),
	})
}

// ByInterests maneja GET /api/lecturers/by-interests?interestIds=.
func (h *AdvisorHandler) ByInterests(c *gin.Context) {
	ids := c.QueryArray("interestIds")
	if !hasValue(ids) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "interestIds is required"})
		return
	}
	h.respondSearch(c, service.SearchInput{InterestIDs: ids})
}

// ByCategory maneja GET /api/lecturers/by-category/:categoryId.
func (h *AdvisorHandler) ByCategory(c *gin.Context) {
	h.respondSearch(c, service.SearchInput{CategoryIDs: []string{c.Param("categoryId")}})
}

// ByDepartment maneja GET /api/lecturers/by-department?department=.
// Solo compara contra el departamento.
func (h *AdvisorHandler) ByDepartment(c *gin.Context) {
	department := c.Query("department")
	if strings.TrimSpace(department) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "department is required"})
		return
	}
	h.respondSearch(c, service.SearchInput{Department: department})
}

func (h *AdvisorHandler) respondSearch(c *gin.Context, input service.SearchInput) {
	profiles, err := h.search.Search(c.Request.Context(), input)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
			return
		}
		h.logger.Error("search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not search lecturers"})
		return
	}
	c.JSON(http.StatusOK, profiles)
}

func hasValue(values []string) bool {
	for _, v := range values {
		if strings.Trim(v, " ,") != "" {
			return true
		}
	}
	return false
}

// GetByID maneja GET /api/lecturers/:id.
func (h *AdvisorHandler) GetByID(c *gin.Context) {
	id, err := service.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	profile, err := h.search.GetPublic(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile-not-found"})
			return
		}
		h.logger.Error("get profile failed", zap.Error(err), zap.Int64("profile_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not get lecturer"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetContact maneja GET /api/lecturers/:id/contact.
// La identidad sale del token si hay uno; si no, del parametro studentEmail.
func (h *AdvisorHandler) GetContact(c *gin.Context) {
	id, err := service.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	identity := c.Query("studentEmail")
	if claims, ok := GetAuthClaims(c); ok {
		identity = claims.Email
	}

	contact, err := h.disclosure.Disclose(c.Request.Context(), id, identity)
	if err != nil {
		if reason := service.RefusalReason(err); reason != "" {
			c.JSON(refusalStatus(reason), gin.H{"error": reason})
			return
		}
		h.logger.Error("contact disclosure failed", zap.Error(err), zap.Int64("profile_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not get contact"})
		return
	}
	c.JSON(http.StatusOK, contact)
}

func refusalStatus(reason string) int {
	if reason == metrics.DisclosureNotFound {
		return http.StatusNotFound
	}
	return http.StatusForbidden
}

// Register maneja POST /api/lecturers/register.
func (h *AdvisorHandler) Register(c *gin.Context) {
	var req struct {
		FirstName       string  `json:"first_name" binding:"required"`
		LastName        string  `json:"last_name" binding:"required"`
		Email           string  `json:"email" binding:"required,email"`
		Title           string  `json:"title"`
		Department      string  `json:"department"`
		Bio             string  `json:"bio"`
		Phone           string  `json:"phone"`
		OfficeLocation  string  `json:"office_location"`
		OfficeHours     string  `json:"office_hours"`
		ProfileImageURL string  `json:"profile_image_url"`
		InterestIDs     []int64 `json:"research_interest_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid lecturer register request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	profile, err := h.advisors.Register(c.Request.Context(), service.RegisterAdvisorInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Title:           req.Title,
		Department:      req.Department,
		Bio:             req.Bio,
		Phone:           req.Phone,
		OfficeLocation:  req.OfficeLocation,
		OfficeHours:     req.OfficeHours,
		ProfileImageURL: req.ProfileImageURL,
		InterestIDs:     req.InterestIDs,
	})
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
		case errors.Is(err, service.ErrUnknownInterest):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrAdvisorEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "email already exists"})
		default:
			h.logger.Error("register lecturer failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register lecturer"})
		}
		return
	}
	c.JSON(http.StatusCreated, profile.Public())
}

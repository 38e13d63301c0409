package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"advisor-finder/internal/domain"
	"advisor-finder/internal/service"
)

// StudentHandler mantiene dependencias para registro, inscripcion y sesion de estudiantes.
type StudentHandler struct {
	logger      *zap.Logger
	studentServ *service.StudentService
	jwtServ     *service.JWTService
}

// NewStudentHandler crea una instancia de StudentHandler con dependencias necesarias.
func NewStudentHandler(logger *zap.Logger, studentServ *service.StudentService, jwtServ *service.JWTService) *StudentHandler {
	return &StudentHandler{
		logger:      logger,
		studentServ: studentServ,
		jwtServ:     jwtServ,
	}
}

// Register maneja POST /api/students/register.
func (h *StudentHandler) Register(c *gin.Context) {
	var req struct {
		FirstName     string `json:"first_name" binding:"required"`
		LastName      string `json:"last_name" binding:"required"`
		Email         string `json:"email" binding:"required,email"`
		Password      string `json:"password"`
		Phone         string `json:"phone"`
		StudentNumber string `json:"student_id"`
		Program       string `json:"program"`
		YearOfStudy   *int   `json:"year_of_study" binding:"omitempty,min=1,max=10"`
		Interests     string `json:"interests"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid student register request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	student, err := h.studentServ.Register(c.Request.Context(), service.RegisterStudentInput{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Password:      req.Password,
		Phone:         req.Phone,
		StudentNumber: req.StudentNumber,
		Program:       req.Program,
		YearOfStudy:   req.YearOfStudy,
		Interests:     req.Interests,
	})
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr),
			errors.Is(err, service.ErrInvalidEmail),
			errors.Is(err, service.ErrInvalidName),
			errors.Is(err, service.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrEmailTaken),
			errors.Is(err, service.ErrStudentNumberTaken):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			h.logger.Error("register student failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register student"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"student": student})
}

// RequestOTP maneja POST /api/students/otp/request.
func (h *StudentHandler) RequestOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid otp request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	_, err := h.studentServ.RequestOTP(c.Request.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStudentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		case errors.Is(err, service.ErrAlreadyEnrolled):
			c.JSON(http.StatusConflict, gin.H{"error": "already enrolled"})
		case errors.Is(err, service.ErrEmailSendFailure):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "email delivery unavailable"})
		case errors.Is(err, service.ErrRateLimited):
			var limited *service.CodeRateLimitError
			if errors.As(err, &limited) && limited.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(limited.RetryAfter.Seconds()))))
			}
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		default:
			h.logger.Error("request otp failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not request otp"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "otp_sent"})
}

// VerifyOTP maneja POST /api/students/otp/verify.
func (h *StudentHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		Code  string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid otp verify request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	student, err := h.studentServ.VerifyOTP(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStudentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		case errors.Is(err, service.ErrOTPNotRequested),
			errors.Is(err, service.ErrOTPExpired),
			errors.Is(err, service.ErrOTPInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("verify otp failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not verify otp"})
		}
		return
	}

	h.respondWithTokens(c, student)
}

// Login maneja POST /api/students/login.
func (h *StudentHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	student, err := h.studentServ.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not login"})
		return
	}

	h.respondWithTokens(c, student)
}

// RefreshToken maneja POST /api/students/refresh.
func (h *StudentHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid refresh request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if h.jwtServ == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
		return
	}
	tokens, err := h.jwtServ.RefreshPair(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// Logout maneja POST /api/students/logout.
func (h *StudentHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid logout request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if h.jwtServ == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
		return
	}
	_ = h.jwtServ.RevokeRefresh(c.Request.Context(), req.RefreshToken)
	c.Status(http.StatusNoContent)
}

// CheckEmail maneja GET /api/students/check-email?email=.
func (h *StudentHandler) CheckEmail(c *gin.Context) {
	registered, err := h.studentServ.EmailRegistered(c.Request.Context(), c.Query("email"))
	if err != nil {
		h.logger.Error("check email failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check email"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"registered": registered})
}

// Me maneja GET /api/students/me. Requiere JWTAuthMiddleware.
func (h *StudentHandler) Me(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	student, err := h.studentServ.GetByEmail(c.Request.Context(), claims.Email)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
			return
		}
		h.logger.Error("get student failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not get student"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"student": student})
}

func (h *StudentHandler) respondWithTokens(c *gin.Context, student domain.Student) {
	if h.jwtServ == nil {
		h.logger.Error("jwt issue failed", zap.Error(errors.New("jwt not configured")))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue tokens"})
		return
	}
	tokens, err := h.jwtServ.GeneratePair(c.Request.Context(), student)
	if err != nil {
		h.logger.Error("jwt issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue tokens"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"student": student, "tokens": tokens})
}

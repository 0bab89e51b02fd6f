package reservation

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"rentory/internal/domain"
	"rentory/internal/pkg/response"
	"rentory/internal/pkg/validator"
	"rentory/internal/repository"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/reservations", h.Create)
	rg.GET("/reservations", h.List)
	rg.GET("/reservations/:id", h.Get)
	rg.PATCH("/reservations/:id/status", h.UpdateStatus)
	rg.POST("/reservations/:id/cancel", h.Cancel)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if fields := validator.FieldErrors(err); fields != nil {
			response.ErrorWithDetails(c, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid request body", fields)
			return
		}
		response.Error(c, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid request body")
		return
	}

	res, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res)
}

func (h *Handler) Get(c *gin.Context) {
	res, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid request body")
		return
	}

	res, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) Cancel(c *gin.Context) {
	res, err := h.service.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) List(c *gin.Context) {
	f, ok := parseListFilter(c)
	if !ok {
		return
	}

	reservations, total, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	response.Success(c, http.StatusOK, ListResponse{
		Reservations: reservations,
		Total:        total,
		Page:         page,
		PageSize:     pageSize,
	})
}

func parseListFilter(c *gin.Context) (repository.ListFilter, bool) {
	f := repository.ListFilter{
		ServiceID: c.Query("service_id"),
	}

	for _, raw := range c.QueryArray("status") {
		s := domain.ReservationStatus(raw)
		if !s.Valid() {
			response.Error(c, http.StatusBadRequest, "INVALID_ARGUMENT", "unknown status "+raw)
			return f, false
		}
		f.Statuses = append(f.Statuses, s)
	}
	for _, raw := range c.QueryArray("type") {
		t := domain.ReservationType(raw)
		if !t.Valid() {
			response.Error(c, http.StatusBadRequest, "INVALID_ARGUMENT", "unknown type "+raw)
			return f, false
		}
		f.Types = append(f.Types, t)
	}

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "INVALID_ARGUMENT", "from must be RFC3339")
			return f, false
		}
		f.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "INVALID_ARGUMENT", "to must be RFC3339")
			return f, false
		}
		f.To = &t
	}

	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	f.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	return f, true
}

func respondError(c *gin.Context, err error) {
	var insufficient *domain.InsufficientInventoryError

	switch {
	case errors.As(err, &insufficient):
		response.ErrorWithDetails(c, http.StatusConflict, "INSUFFICIENT_INVENTORY",
			insufficient.Error(), insufficient.Conflicts)
	case errors.Is(err, domain.ErrInvalidArgument):
		response.Error(c, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "reservation or service not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		response.Error(c, http.StatusUnprocessableEntity, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, domain.ErrConflict):
		response.Error(c, http.StatusConflict, "CONFLICT", "reservation was modified concurrently, retry")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "reservation operation failed")
	}
}

package availability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"rentory/internal/domain"
	"rentory/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/services/:id/availability", h.CheckAvailability)
	rg.GET("/services/:id/availability/breakdown", h.GetBreakdown)
	rg.GET("/services/:id/availability/conflicts", h.ExplainShortfall)
}

func (h *Handler) CheckAvailability(c *gin.Context) {
	serviceID := c.Param("id")

	start, end, ok := parseWindow(c)
	if !ok {
		return
	}
	quantity, ok := parseQuantity(c)
	if !ok {
		return
	}

	result, err := h.service.CheckAvailability(c.Request.Context(), serviceID, start, end, quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

func (h *Handler) GetBreakdown(c *gin.Context) {
	serviceID := c.Param("id")

	start, end, ok := parseWindow(c)
	if !ok {
		return
	}

	slots, err := h.service.GetAvailabilityBreakdown(c.Request.Context(), serviceID, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, BreakdownResponse{ServiceID: serviceID, Slots: slots})
}

func (h *Handler) ExplainShortfall(c *gin.Context) {
	serviceID := c.Param("id")

	start, end, ok := parseWindow(c)
	if !ok {
		return
	}
	quantity, ok := parseQuantity(c)
	if !ok {
		return
	}

	conflicts, err := h.service.ExplainShortfall(c.Request.Context(), serviceID, start, end, quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, ShortfallResponse{ServiceID: serviceID, Conflicts: conflicts})
}

func parseWindow(c *gin.Context) (start, end time.Time, ok bool) {
	var err error
	start, err = time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ARGUMENT", "start must be RFC3339")
		return time.Time{}, time.Time{}, false
	}
	end, err = time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ARGUMENT", "end must be RFC3339")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func parseQuantity(c *gin.Context) (int, bool) {
	raw := c.DefaultQuery("quantity", "1")
	quantity, err := strconv.Atoi(raw)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ARGUMENT", "quantity must be an integer")
		return 0, false
	}
	return quantity, true
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		response.Error(c, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "service not found")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to compute availability")
	}
}

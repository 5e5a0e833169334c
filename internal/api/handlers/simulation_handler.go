package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hotelrm/backend-go/internal/domain"
	"github.com/hotelrm/backend-go/internal/service"
)

type SimulationHandler struct {
	service *service.SimulationService
}

func NewSimulationHandler(service *service.SimulationService) *SimulationHandler {
	return &SimulationHandler{service: service}
}

// simulationRequestBody is the wire shape of a simulation request.
// room_types absent means every room type; present-but-empty is a valid
// empty selection, so the distinction must survive decoding.
type simulationRequestBody struct {
	HotelID       string                       `json:"hotel_id"`
	Partner       string                       `json:"partner"`
	StartDate     string                       `json:"start_date"`
	EndDate       string                       `json:"end_date"`
	RoomTypes     []string                     `json:"room_types"`
	PlanSelection map[string]domain.PlanChoice `json:"plan_selection"`
}

func (b simulationRequestBody) toDomain() (domain.SimulationRequest, error) {
	req := domain.SimulationRequest{
		HotelID:       b.HotelID,
		Partner:       b.Partner,
		RoomTypes:     b.RoomTypes,
		PlanSelection: b.PlanSelection,
	}

	if b.StartDate != "" {
		start, err := time.Parse(domain.DateLayout, b.StartDate)
		if err != nil {
			return req, &domain.ValidationError{Field: "start_date", Reason: "must be formatted YYYY-MM-DD"}
		}
		req.StartDate = start
	}
	if b.EndDate != "" {
		end, err := time.Parse(domain.DateLayout, b.EndDate)
		if err != nil {
			return req, &domain.ValidationError{Field: "end_date", Reason: "must be formatted YYYY-MM-DD"}
		}
		req.EndDate = end
	}

	return req, nil
}

func (h *SimulationHandler) Simulate(c *gin.Context) {
	var body simulationRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	req, err := body.toDomain()
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.service.Simulate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *SimulationHandler) Availability(c *gin.Context) {
	var body simulationRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	req, err := body.toDomain()
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.service.Availability(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *SimulationHandler) PartnerPlans(c *gin.Context) {
	hotelID := strings.TrimSpace(c.Query("hotel_id"))
	partnerID := strings.TrimSpace(c.Query("partner"))
	roomType := strings.TrimSpace(c.Query("room_type"))

	if hotelID == "" || partnerID == "" || roomType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hotel_id, partner and room_type are required"})
		return
	}

	result, err := h.service.PartnerPlans(c.Request.Context(), hotelID, partnerID, roomType)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *SimulationHandler) HotelSummary(c *gin.Context) {
	hotelID := c.Param("hotel_id")

	result, err := h.service.HotelSummary(c.Request.Context(), hotelID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// respondError maps domain failures onto HTTP statuses: validation to
// 400, unknown resources to 404, snapshot unavailability to 503.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrDataUnavailable):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

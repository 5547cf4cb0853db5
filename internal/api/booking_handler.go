package api

import (
	"net/http"

	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingHandler struct {
	bookingService service.BookingService
}

func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// --- DTOs ---

type AvailabilityQuery struct {
	CoachID string `form:"coach_id" binding:"required"`
	Date    string `form:"date" binding:"required,isodate"`
}

type HoldRequest struct {
	CoachID   string `json:"coachId" binding:"required"`
	Date      string `json:"date" binding:"required,isodate"`
	StartTime string `json:"startTime" binding:"required,slot"`
}

type BookRequest struct {
	ApplicationID string `json:"applicationId" binding:"required"`
	CoachID       string `json:"coachId" binding:"required"`
	Date          string `json:"date" binding:"required,isodate"`
	StartTime     string `json:"startTime" binding:"required,slot"`
	Notes         string `json:"notes" binding:"max=500"`
	HoldToken     string `json:"holdToken"`
}

// GetAvailability godoc
// @Summary Slot availability for a coach on a date
// @Description Public. The fixed slots with booked, held and available start times. A signed-in member's own holds do not count as held.
// @Tags Bookings
// @Produce json
// @Param coach_id query string true "Coach ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} service.Availability
// @Failure 400 {object} gin.H "Invalid coach_id or date"
// @Failure 404 {object} gin.H "Coach not found"
// @Router /bookings/availability [get]
func (h *BookingHandler) GetAvailability(c *gin.Context) {
	var q AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindingError(c, err)
		return
	}
	coachID, err := primitive.ObjectIDFromHex(q.CoachID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid coach_id format")
		return
	}
	viewer, _ := principalFrom(c)
	av, err := h.bookingService.GetAvailability(c.Request.Context(), viewer, coachID, q.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, av)
}

// HoldSlot godoc
// @Summary Hold a slot while completing a booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param hold body HoldRequest true "Slot"
// @Success 201 {object} domain.SlotHold
// @Failure 409 {object} gin.H "Slot no longer available"
// @Router /bookings/holds [post]
func (h *BookingHandler) HoldSlot(c *gin.Context) {
	member, ok := memberFrom(c)
	if !ok {
		return
	}
	var req HoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}
	coachID, err := primitive.ObjectIDFromHex(req.CoachID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid coachId format")
		return
	}
	hold, err := h.bookingService.Hold(c.Request.Context(), member, coachID, req.Date, req.StartTime)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, hold)
}

// CreateBooking godoc
// @Summary Book a slot
// @Description Books one fixed slot for the caller's active membership. Concurrent requests for the same slot: exactly one wins, the others get 409.
// @Tags Bookings
// @Accept json
// @Produce json
// @Param booking body BookRequest true "Booking"
// @Success 201 {object} domain.Booking
// @Failure 400 {object} gin.H "Invalid slot or date"
// @Failure 409 {object} gin.H "Slot no longer available"
// @Router /bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	member, ok := memberFrom(c)
	if !ok {
		return
	}
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}
	applicationID, err := primitive.ObjectIDFromHex(req.ApplicationID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid applicationId format")
		return
	}
	coachID, err := primitive.ObjectIDFromHex(req.CoachID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid coachId format")
		return
	}

	booking, err := h.bookingService.Book(c.Request.Context(), member, service.BookInput{
		ApplicationID: applicationID,
		CoachID:       coachID,
		Date:          req.Date,
		StartTime:     req.StartTime,
		Notes:         req.Notes,
		HoldToken:     req.HoldToken,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	member, ok := memberFrom(c)
	if !ok {
		return
	}
	bookings, err := h.bookingService.ListForMember(c.Request.Context(), member)
	if err != nil {
		respondError(c, err)
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) ListCoachBookings(c *gin.Context) {
	coach, ok := coachFrom(c)
	if !ok {
		return
	}
	bookings, err := h.bookingService.ListForCoach(c.Request.Context(), coach)
	if err != nil {
		respondError(c, err)
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	c.JSON(http.StatusOK, bookings)
}

// CancelBooking is open to the booking's member, its coach and admins.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	principal, _ := principalFrom(c)
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	booking, err := h.bookingService.Cancel(c.Request.Context(), principal, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	principal, _ := principalFrom(c)
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	booking, err := h.bookingService.Complete(c.Request.Context(), principal, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

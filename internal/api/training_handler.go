package api

import (
	"net/http"

	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/service"

	"github.com/gin-gonic/gin"
)

type TrainingHandler struct {
	trainingService service.TrainingService
}

func NewTrainingHandler(trainingService service.TrainingService) *TrainingHandler {
	return &TrainingHandler{trainingService: trainingService}
}

type SessionRequest struct {
	Date     string  `json:"date" binding:"omitempty,isodate"`
	WeightKg float64 `json:"weightKg" binding:"required,gt=0,lte=500"`
	Notes    string  `json:"notes" binding:"max=2000"`
}

// LogSession godoc
// @Summary Record a training session
// @Description The calling coach logs weight and notes for one of their active clients. Date defaults to today.
// @Tags Coach
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param session body SessionRequest true "Session"
// @Success 201 {object} domain.TrainingSession
// @Failure 403 {object} gin.H "Not this coach's client"
// @Failure 409 {object} gin.H "Training is not active"
// @Router /coach/applications/{id}/sessions [post]
func (h *TrainingHandler) LogSession(c *gin.Context) {
	coach, ok := coachFrom(c)
	if !ok {
		return
	}
	applicationID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}
	session, err := h.trainingService.LogSession(c.Request.Context(), coach, applicationID, service.SessionInput{
		Date:     req.Date,
		WeightKg: req.WeightKg,
		Notes:    req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *TrainingHandler) UpdateSession(c *gin.Context) {
	coach, ok := coachFrom(c)
	if !ok {
		return
	}
	sessionID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}
	session, err := h.trainingService.UpdateSession(c.Request.Context(), coach, sessionID, service.SessionInput{
		Date:     req.Date,
		WeightKg: req.WeightKg,
		Notes:    req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *TrainingHandler) GetHistory(c *gin.Context) {
	principal, _ := principalFrom(c)
	applicationID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	sessions, err := h.trainingService.History(c.Request.Context(), principal, applicationID)
	if err != nil {
		respondError(c, err)
		return
	}
	if sessions == nil {
		sessions = []domain.TrainingSession{}
	}
	c.JSON(http.StatusOK, sessions)
}

// GetProgress godoc
// @Summary Weight and BMI progress
// @Description The initial snapshot from the application followed by each session in date order.
// @Tags Training
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {array} domain.ProgressPoint
// @Router /applications/{id}/progress [get]
func (h *TrainingHandler) GetProgress(c *gin.Context) {
	principal, _ := principalFrom(c)
	applicationID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	points, err := h.trainingService.Progress(c.Request.Context(), principal, applicationID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}

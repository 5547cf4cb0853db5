package api

import (
	"net/http"

	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/repository"
	"alcyxob/gym-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ApplicationHandler struct {
	applicationService service.ApplicationService
}

func NewApplicationHandler(applicationService service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applicationService: applicationService}
}

// --- DTOs ---

type SubmitApplicationRequest struct {
	FullName         string  `json:"fullName" binding:"required"`
	Email            string  `json:"email" binding:"omitempty,email"`
	Phone            string  `json:"phone"`
	Age              int     `json:"age" binding:"gte=0"`
	HeightCm         float64 `json:"heightCm" binding:"required"`
	WeightKg         float64 `json:"weightKg" binding:"required"`
	IDImageURL       string  `json:"idImageUrl" binding:"omitempty,url"`
	PackageID        string  `json:"packageId" binding:"required"`
	CoachID          string  `json:"coachId" binding:"required"`
	WaiverAccepted   bool    `json:"waiverAccepted"`
	PaymentReference string  `json:"paymentReference"`
}

type DeclineRequest struct {
	Reason string `json:"reason"`
}

type PaymentStatusRequest struct {
	Status    domain.PaymentStatus `json:"status" binding:"required,oneof=pending completed refunded failed"`
	Reference string               `json:"reference"`
}

type DeleteSelectedRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,dive,required"`
}

type DecisionResponse struct {
	Application     *domain.Application `json:"application"`
	RefundInitiated bool                `json:"refund_initiated"`
}

type ArchiveResponse struct {
	Application       *domain.Application `json:"application"`
	TrainingCancelled bool                `json:"trainingCancelled"`
	BookingsCancelled int64               `json:"bookingsCancelled"`
}

// --- Member ---

// SubmitApplication godoc
// @Summary Submit a membership application
// @Description Creates the caller's application. Only one non-archived application may exist per member.
// @Tags Applications
// @Accept json
// @Produce json
// @Param application body SubmitApplicationRequest true "Application form"
// @Success 201 {object} domain.Application
// @Failure 400 {object} gin.H "Validation error (e.g. waiver not accepted)"
// @Failure 404 {object} gin.H "Package or coach not found"
// @Failure 409 {object} gin.H "An active application already exists"
// @Router /applications [post]
func (h *ApplicationHandler) SubmitApplication(c *gin.Context) {
	member, ok := memberFrom(c)
	if !ok {
		return
	}
	var req SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}
	packageID, err := primitive.ObjectIDFromHex(req.PackageID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid packageId format")
		return
	}
	coachID, err := primitive.ObjectIDFromHex(req.CoachID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid coachId format")
		return
	}

	app, err := h.applicationService.Submit(c.Request.Context(), member, service.SubmitApplicationInput{
		FullName:         req.FullName,
		Email:            req.Email,
		Phone:            req.Phone,
		Age:              req.Age,
		HeightCm:         req.HeightCm,
		WeightKg:         req.WeightKg,
		IDImageURL:       req.IDImageURL,
		PackageID:        packageID,
		CoachID:          coachID,
		WaiverAccepted:   req.WaiverAccepted,
		PaymentReference: req.PaymentReference,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

// GetMyApplication returns the caller's active application, 404 if none.
func (h *ApplicationHandler) GetMyApplication(c *gin.Context) {
	member, ok := memberFrom(c)
	if !ok {
		return
	}
	app, err := h.applicationService.GetActive(c.Request.Context(), member)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	principal, _ := principalFrom(c)
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	app, err := h.applicationService.Get(c.Request.Context(), principal, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// CancelApplication godoc
// @Summary Withdraw a pending application
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} DecisionResponse
// @Failure 409 {object} gin.H "Already reviewed or archived"
// @Router /applications/{id}/cancel [post]
func (h *ApplicationHandler) CancelApplication(c *gin.Context) {
	member, ok := memberFrom(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	res, err := h.applicationService.Cancel(c.Request.Context(), member, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, DecisionResponse{Application: res.Application, RefundInitiated: res.RefundInitiated})
}

// --- Coach ---

// ListCoachClients returns the applications assigned to the calling coach.
func (h *ApplicationHandler) ListCoachClients(c *gin.Context) {
	coach, ok := coachFrom(c)
	if !ok {
		return
	}
	apps, err := h.applicationService.ListForCoach(c.Request.Context(), coach)
	if err != nil {
		respondError(c, err)
		return
	}
	if apps == nil {
		apps = []domain.Application{}
	}
	c.JSON(http.StatusOK, apps)
}

// --- Admin ---

// ListApplications godoc
// @Summary List applications
// @Description Optional filters: archived=true|false, status=pending|approved|declined, coach_id.
// @Tags Admin
// @Produce json
// @Success 200 {array} domain.Application
// @Failure 400 {object} gin.H "Invalid filter"
// @Router /admin/applications [get]
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	var filter repository.ApplicationFilter
	switch c.Query("archived") {
	case "":
	case "true":
		archived := true
		filter.Archived = &archived
	case "false":
		archived := false
		filter.Archived = &archived
	default:
		abortWithError(c, http.StatusBadRequest, "archived must be true or false")
		return
	}
	if s := c.Query("status"); s != "" {
		status := domain.ApplicationStatus(s)
		if !status.Valid() {
			abortWithError(c, http.StatusBadRequest, "Invalid status filter")
			return
		}
		filter.Status = &status
	}
	if s := c.Query("coach_id"); s != "" {
		coachID, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid coach_id format")
			return
		}
		filter.CoachID = &coachID
	}

	apps, err := h.applicationService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if apps == nil {
		apps = []domain.Application{}
	}
	c.JSON(http.StatusOK, apps)
}

func (h *ApplicationHandler) ApproveApplication(c *gin.Context) {
	admin, ok := adminFrom(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	app, err := h.applicationService.Approve(c.Request.Context(), admin, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// DeclineApplication godoc
// @Summary Decline a pending application
// @Description Refunds first when the payment was completed; a failed refund leaves the application untouched.
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param body body DeclineRequest false "Reason"
// @Success 200 {object} DecisionResponse
// @Failure 409 {object} gin.H "Already reviewed or archived"
// @Failure 502 {object} gin.H "Refund failed"
// @Router /admin/applications/{id}/decline [post]
func (h *ApplicationHandler) DeclineApplication(c *gin.Context) {
	admin, ok := adminFrom(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req DeclineRequest
	// The body is optional.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindingError(c, err)
			return
		}
	}
	res, err := h.applicationService.Decline(c.Request.Context(), admin, id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, DecisionResponse{Application: res.Application, RefundInitiated: res.RefundInitiated})
}

func (h *ApplicationHandler) ArchiveApplication(c *gin.Context) {
	admin, ok := adminFrom(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	res, err := h.applicationService.Archive(c.Request.Context(), admin, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ArchiveResponse{
		Application:       res.Application,
		TrainingCancelled: res.TrainingCancelled,
		BookingsCancelled: res.BookingsCancelled,
	})
}

func (h *ApplicationHandler) UpdatePaymentStatus(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req PaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}
	app, err := h.applicationService.UpdatePaymentStatus(c.Request.Context(), id, req.Status, req.Reference)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// --- Archived cleanup ---

func (h *ApplicationHandler) DeleteArchived(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.applicationService.DeleteArchived(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted_count": 1})
}

func (h *ApplicationHandler) DeleteArchivedSelected(c *gin.Context) {
	var req DeleteSelectedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}
	ids := make([]primitive.ObjectID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid id format: "+raw)
			return
		}
		ids = append(ids, id)
	}
	n, err := h.applicationService.DeleteArchivedSelected(c.Request.Context(), ids)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted_count": n})
}

func (h *ApplicationHandler) DeleteAllArchived(c *gin.Context) {
	n, err := h.applicationService.DeleteAllArchived(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted_count": n})
}

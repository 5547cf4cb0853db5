package api

import (
	"net/http"

	"alcyxob/gym-app/internal/service"

	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	contactService service.ContactService
}

func NewContactHandler(contactService service.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

type ContactRequest struct {
	Name    string `json:"name" binding:"required,max=200"`
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message" binding:"required,max=5000"`
}

// SubmitContact godoc
// @Summary Send a message to the front desk
// @Tags Contact
// @Accept json
// @Produce json
// @Param message body ContactRequest true "Message"
// @Success 202 {object} gin.H
// @Failure 503 {object} gin.H "Mail delivery not configured"
// @Router /contact [post]
func (h *ContactHandler) SubmitContact(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}
	if err := h.contactService.Submit(c.Request.Context(), req.Name, req.Email, req.Message); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Thanks, we will get back to you soon"})
}

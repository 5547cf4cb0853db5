package api

import (
	"net/http"

	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/service"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves coaches and packages. Reads are public, writes
// are admin-only.
type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// --- DTOs ---

type CoachRequest struct {
	Name              string   `json:"name" binding:"required"`
	Email             string   `json:"email" binding:"omitempty,email"`
	Bio               string   `json:"bio"`
	Specialty         string   `json:"specialty"`
	Certifications    []string `json:"certifications"`
	YearsOfExperience int      `json:"yearsOfExperience" binding:"gte=0"`
	Availability      string   `json:"availability"`
	Rating            float64  `json:"rating" binding:"gte=0,lte=5"`
	IsActive          *bool    `json:"isActive"`
	PictureURL        string   `json:"pictureUrl" binding:"omitempty,url"`
	// Password, when set on create, provisions a coach login for Email.
	Password string `json:"password" binding:"omitempty,min=8"`
}

func (r CoachRequest) input() service.CoachInput {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return service.CoachInput{
		Name:              r.Name,
		Email:             r.Email,
		Bio:               r.Bio,
		Specialty:         r.Specialty,
		Certifications:    r.Certifications,
		YearsOfExperience: r.YearsOfExperience,
		Availability:      r.Availability,
		Rating:            r.Rating,
		IsActive:          active,
		PictureURL:        r.PictureURL,
		AccountPassword:   r.Password,
	}
}

type PackageRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"gte=0"`
	PictureURL  string  `json:"pictureUrl" binding:"omitempty,url"`
}

func (r PackageRequest) input() service.PackageInput {
	return service.PackageInput{
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		PictureURL:  r.PictureURL,
	}
}

// --- Coaches ---

// ListCoaches godoc
// @Summary List coaches
// @Description Public catalog. Admins may pass all=true to include inactive coaches.
// @Tags Catalog
// @Produce json
// @Success 200 {array} domain.Coach
// @Router /coaches [get]
func (h *CatalogHandler) ListCoaches(c *gin.Context) {
	activeOnly := true
	if p, ok := principalFrom(c); ok && p.Role() == domain.RoleAdmin && c.Query("all") == "true" {
		activeOnly = false
	}
	coaches, err := h.catalogService.ListCoaches(c.Request.Context(), activeOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	if coaches == nil {
		coaches = []domain.Coach{}
	}
	c.JSON(http.StatusOK, coaches)
}

func (h *CatalogHandler) GetCoach(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	coach, err := h.catalogService.GetCoach(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, coach)
}

func (h *CatalogHandler) CreateCoach(c *gin.Context) {
	var req CoachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}
	coach, err := h.catalogService.CreateCoach(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, coach)
}

func (h *CatalogHandler) UpdateCoach(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req CoachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}
	coach, err := h.catalogService.UpdateCoach(c.Request.Context(), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, coach)
}

// DeleteCoach godoc
// @Summary Delete a coach
// @Description Refused while the coach has active clients. Also removes the coach's login and picture.
// @Tags Admin
// @Param id path string true "Coach ID"
// @Success 204
// @Failure 409 {object} gin.H "Coach still has active clients"
// @Router /admin/coaches/{id} [delete]
func (h *CatalogHandler) DeleteCoach(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteCoach(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Packages ---

func (h *CatalogHandler) ListPackages(c *gin.Context) {
	packages, err := h.catalogService.ListPackages(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if packages == nil {
		packages = []domain.Package{}
	}
	c.JSON(http.StatusOK, packages)
}

func (h *CatalogHandler) GetPackage(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	pkg, err := h.catalogService.GetPackage(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pkg)
}

func (h *CatalogHandler) CreatePackage(c *gin.Context) {
	var req PackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}
	pkg, err := h.catalogService.CreatePackage(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pkg)
}

func (h *CatalogHandler) UpdatePackage(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req PackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}
	pkg, err := h.catalogService.UpdatePackage(c.Request.Context(), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pkg)
}

func (h *CatalogHandler) DeletePackage(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeletePackage(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

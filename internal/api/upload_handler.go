package api

import (
	"errors"
	"net/http"

	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/service"

	"github.com/gin-gonic/gin"
)

// multipartOverhead leaves room for boundaries and headers around the file.
const multipartOverhead = 64 << 10

type UploadHandler struct {
	uploadService service.UploadService
}

func NewUploadHandler(uploadService service.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

type PresignRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

func uploadKindParam(c *gin.Context) (domain.UploadKind, bool) {
	kind, ok := domain.ParseUploadKind(c.Param("kind"))
	if !ok {
		abortWithError(c, http.StatusNotFound, "Unknown upload kind")
	}
	return kind, ok
}

// UploadImage godoc
// @Summary Upload an image
// @Description Multipart upload (field "file") of a JPEG, PNG or WebP image. kind is pictures (ID images, any signed-in user), coach or package (admin).
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param kind path string true "pictures | coach | package"
// @Param file formData file true "Image"
// @Success 201 {object} gin.H "url of the stored image"
// @Failure 413 {object} gin.H "File too large"
// @Failure 415 {object} gin.H "Unsupported file type"
// @Failure 503 {object} gin.H "Uploads not configured"
// @Router /uploads/{kind} [post]
func (h *UploadHandler) UploadImage(c *gin.Context) {
	principal, _ := principalFrom(c)
	kind, ok := uploadKindParam(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploadService.MaxBytes()+multipartOverhead)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, service.ErrFileTooLarge)
			return
		}
		abortWithError(c, http.StatusBadRequest, "File is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Could not read uploaded file")
		return
	}
	defer file.Close()

	url, err := h.uploadService.Upload(c.Request.Context(), principal, kind, fileHeader.Header.Get("Content-Type"), fileHeader.Size, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

// PresignUpload returns a short-lived URL the browser can PUT the image to.
func (h *UploadHandler) PresignUpload(c *gin.Context) {
	principal, _ := principalFrom(c)
	kind, ok := uploadKindParam(c)
	if !ok {
		return
	}
	var req PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}
	presigned, err := h.uploadService.Presign(c.Request.Context(), principal, kind, req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, presigned)
}

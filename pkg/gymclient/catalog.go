package gymclient

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
)

type UploadKind string

const (
	UploadApplicantID UploadKind = "pictures"
	UploadCoach       UploadKind = "coach"
	UploadPackage     UploadKind = "package"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Image is a file picked for upload.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (img Image) validate(maxBytes int64) error {
	if len(img.Data) == 0 {
		return invalid("file", "please choose an image")
	}
	if !allowedImageTypes[img.ContentType] {
		return invalid("file", "only JPEG, PNG and WebP images are accepted")
	}
	if int64(len(img.Data)) > maxBytes {
		return invalid("file", "image must be %d MB or smaller", maxBytes>>20)
	}
	return nil
}

// UploadImage stores an image and returns its public URL, which is then
// sent as a plain field on the owning record.
func (c *Client) UploadImage(ctx context.Context, kind UploadKind, img Image) (string, error) {
	if err := img.validate(c.maxUpload); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	filename := img.Filename
	if filename == "" {
		filename = "upload"
	}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", img.ContentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(img.Data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/uploads/"+url.PathEscape(string(kind)), &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var resp struct {
		URL string `json:"url"`
	}
	if err := c.send(req, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// --- Coaches ---

// CoachForm is the admin edit form. Password, on create, also creates
// the coach's login.
type CoachForm struct {
	Name              string   `json:"name"`
	Email             string   `json:"email,omitempty"`
	Bio               string   `json:"bio,omitempty"`
	Specialty         string   `json:"specialty,omitempty"`
	Certifications    []string `json:"certifications,omitempty"`
	YearsOfExperience int      `json:"yearsOfExperience"`
	Availability      string   `json:"availability,omitempty"`
	Rating            float64  `json:"rating"`
	IsActive          bool     `json:"isActive"`
	PictureURL        string   `json:"pictureUrl,omitempty"`
	Password          string   `json:"password,omitempty"`

	Picture *Image `json:"-"`
}

func (c *Client) RefreshCoaches(ctx context.Context) ([]Coach, error) {
	var coaches []Coach
	if err := c.do(ctx, http.MethodGet, "/coaches", nil, &coaches); err != nil {
		return nil, err
	}
	return coaches, nil
}

func (c *Client) Coach(ctx context.Context, id string) (*Coach, error) {
	if err := requireID("coachId", id); err != nil {
		return nil, err
	}
	var coach Coach
	if err := c.do(ctx, http.MethodGet, "/coaches/"+url.PathEscape(id), nil, &coach); err != nil {
		return nil, err
	}
	return &coach, nil
}

// SaveCoach creates (empty id) or updates a coach, uploading the picture
// first when one is attached.
func (c *Client) SaveCoach(ctx context.Context, id string, form CoachForm) (*Coach, error) {
	if form.Name == "" {
		return nil, invalid("name", "coach name is required")
	}
	if form.Picture != nil {
		pictureURL, err := c.UploadImage(ctx, UploadCoach, *form.Picture)
		if err != nil {
			return nil, err
		}
		form.PictureURL = pictureURL
	}
	method, path := http.MethodPost, "/admin/coaches"
	if id != "" {
		method, path = http.MethodPut, "/admin/coaches/"+url.PathEscape(id)
	}
	var coach Coach
	if err := c.do(ctx, method, path, form, &coach); err != nil {
		return nil, err
	}
	return &coach, nil
}

// DeleteCoach fails with the server's message while the coach still has
// active clients; nothing is checked locally.
func (c *Client) DeleteCoach(ctx context.Context, id string) error {
	if err := requireID("coachId", id); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/admin/coaches/"+url.PathEscape(id), nil, nil)
}

// --- Packages ---

type PackageForm struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	PictureURL  string  `json:"pictureUrl,omitempty"`

	Picture *Image `json:"-"`
}

func (c *Client) RefreshPackages(ctx context.Context) ([]Package, error) {
	var packages []Package
	if err := c.do(ctx, http.MethodGet, "/packages", nil, &packages); err != nil {
		return nil, err
	}
	return packages, nil
}

func (c *Client) SavePackage(ctx context.Context, id string, form PackageForm) (*Package, error) {
	if form.Title == "" {
		return nil, invalid("title", "package title is required")
	}
	if form.Price < 0 {
		return nil, invalid("price", "price cannot be negative")
	}
	if form.Picture != nil {
		pictureURL, err := c.UploadImage(ctx, UploadPackage, *form.Picture)
		if err != nil {
			return nil, err
		}
		form.PictureURL = pictureURL
	}
	method, path := http.MethodPost, "/admin/packages"
	if id != "" {
		method, path = http.MethodPut, "/admin/packages/"+url.PathEscape(id)
	}
	var pkg Package
	if err := c.do(ctx, method, path, form, &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (c *Client) DeletePackage(ctx context.Context, id string) error {
	if err := requireID("packageId", id); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/admin/packages/"+url.PathEscape(id), nil, nil)
}

// SendContact forwards a message to the front desk.
func (c *Client) SendContact(ctx context.Context, name, email, message string) error {
	if name == "" || email == "" || message == "" {
		return invalid("message", "name, email and message are required")
	}
	return c.do(ctx, http.MethodPost, "/contact", map[string]string{
		"name": name, "email": email, "message": message,
	}, nil)
}

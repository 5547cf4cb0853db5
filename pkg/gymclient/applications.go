package gymclient

import (
	"context"
	"net/http"
	"net/url"
)

// ApplicationForm is what a member fills in. IDImage is optional and is
// uploaded before the application is submitted.
type ApplicationForm struct {
	FullName         string
	Email            string
	Phone            string
	Age              int
	HeightCm         float64
	WeightKg         float64
	PackageID        string
	CoachID          string
	WaiverAccepted   bool
	PaymentReference string
	IDImage          *Image
}

func (f ApplicationForm) validate(maxUpload int64) error {
	switch {
	case !f.WaiverAccepted:
		return invalid("waiverAccepted", "you must accept the waiver before submitting")
	case f.PackageID == "":
		return invalid("packageId", "please choose a package")
	case f.CoachID == "":
		return invalid("coachId", "please choose a coach")
	case f.FullName == "":
		return invalid("fullName", "full name is required")
	case f.HeightCm <= 0 || f.HeightCm > 300:
		return invalid("heightCm", "height must be between 0 and 300 cm")
	case f.WeightKg <= 0 || f.WeightKg > 500:
		return invalid("weightKg", "weight must be between 0 and 500 kg")
	}
	if f.IDImage != nil {
		return f.IDImage.validate(maxUpload)
	}
	return nil
}

// SubmitApplication runs the whole submission: local validation, a check
// that no active application exists, the ID image upload and the submit
// call. A failed step stops the chain; earlier steps are not undone, so an
// uploaded image stays in the bucket if the submit fails.
func (c *Client) SubmitApplication(ctx context.Context, form ApplicationForm) (*Application, error) {
	if err := form.validate(c.maxUpload); err != nil {
		return nil, err
	}

	existing, err := c.MyApplication(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &APIError{StatusCode: http.StatusConflict, Message: "you already have an active application"}
	}

	var imageURL string
	if form.IDImage != nil {
		imageURL, err = c.UploadImage(ctx, UploadApplicantID, *form.IDImage)
		if err != nil {
			return nil, err
		}
	}

	var app Application
	err = c.do(ctx, http.MethodPost, "/applications", map[string]any{
		"fullName":         form.FullName,
		"email":            form.Email,
		"phone":            form.Phone,
		"age":              form.Age,
		"heightCm":         form.HeightCm,
		"weightKg":         form.WeightKg,
		"idImageUrl":       imageURL,
		"packageId":        form.PackageID,
		"coachId":          form.CoachID,
		"waiverAccepted":   form.WaiverAccepted,
		"paymentReference": form.PaymentReference,
	}, &app)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// MyApplication returns the member's active application, or nil if there
// is none.
func (c *Client) MyApplication(ctx context.Context) (*Application, error) {
	var app Application
	if err := c.do(ctx, http.MethodGet, "/applications/me", nil, &app); err != nil {
		if StatusOf(err) == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &app, nil
}

func (c *Client) CancelApplication(ctx context.Context, id string) (*Decision, error) {
	if err := requireID("applicationId", id); err != nil {
		return nil, err
	}
	var d Decision
	if err := c.do(ctx, http.MethodPost, "/applications/"+url.PathEscape(id)+"/cancel", nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// --- Admin ---

// ApplicationQuery filters RefreshApplications; zero values are omitted.
type ApplicationQuery struct {
	Archived *bool
	Status   string
	CoachID  string
}

func (q ApplicationQuery) encode() string {
	v := url.Values{}
	if q.Archived != nil {
		if *q.Archived {
			v.Set("archived", "true")
		} else {
			v.Set("archived", "false")
		}
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.CoachID != "" {
		v.Set("coach_id", q.CoachID)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// RefreshApplications re-reads the admin list. Call it after every
// mutation rather than patching a local copy.
func (c *Client) RefreshApplications(ctx context.Context, q ApplicationQuery) ([]Application, error) {
	var apps []Application
	if err := c.do(ctx, http.MethodGet, "/admin/applications"+q.encode(), nil, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

func (c *Client) ApproveApplication(ctx context.Context, id string) (*Application, error) {
	if err := requireID("applicationId", id); err != nil {
		return nil, err
	}
	var app Application
	if err := c.do(ctx, http.MethodPost, "/admin/applications/"+url.PathEscape(id)+"/approve", nil, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

func (c *Client) DeclineApplication(ctx context.Context, id, reason string) (*Decision, error) {
	if err := requireID("applicationId", id); err != nil {
		return nil, err
	}
	var d Decision
	if err := c.do(ctx, http.MethodPost, "/admin/applications/"+url.PathEscape(id)+"/decline", map[string]string{"reason": reason}, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) ArchiveApplication(ctx context.Context, id string) (*ArchiveResult, error) {
	if err := requireID("applicationId", id); err != nil {
		return nil, err
	}
	var res ArchiveResult
	if err := c.do(ctx, http.MethodPost, "/admin/applications/"+url.PathEscape(id)+"/archive", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) UpdatePaymentStatus(ctx context.Context, id, status, reference string) (*Application, error) {
	if err := requireID("applicationId", id); err != nil {
		return nil, err
	}
	var app Application
	if err := c.do(ctx, http.MethodPatch, "/admin/applications/"+url.PathEscape(id)+"/payment", map[string]string{
		"status": status, "reference": reference,
	}, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

type deletedCount struct {
	DeletedCount int64 `json:"deleted_count"`
}

func (c *Client) DeleteArchived(ctx context.Context, id string) error {
	if err := requireID("applicationId", id); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/admin/applications/archived/"+url.PathEscape(id), nil, nil)
}

func (c *Client) DeleteArchivedSelected(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, invalid("ids", "select at least one application")
	}
	var res deletedCount
	if err := c.do(ctx, http.MethodPost, "/admin/applications/archived/delete", map[string][]string{"ids": ids}, &res); err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (c *Client) DeleteAllArchived(ctx context.Context) (int64, error) {
	var res deletedCount
	if err := c.do(ctx, http.MethodDelete, "/admin/applications/archived", nil, &res); err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	if err := c.do(ctx, http.MethodGet, "/admin/stats", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) Revenue(ctx context.Context) (*Revenue, error) {
	var r Revenue
	if err := c.do(ctx, http.MethodGet, "/admin/revenue", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) RefreshUsers(ctx context.Context, role string) ([]User, error) {
	path := "/admin/users"
	if role != "" {
		path += "?role=" + url.QueryEscape(role)
	}
	var users []User
	if err := c.do(ctx, http.MethodGet, path, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	if err := requireID("userId", id); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(id), nil, nil)
}

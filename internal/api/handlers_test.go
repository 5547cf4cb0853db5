package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/repository"
	"alcyxob/gym-app/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	testAdmin  = domain.AdminPrincipal{ID: primitive.NewObjectID(), Name: "Admin"}
	testCoach  = domain.CoachPrincipal{ID: primitive.NewObjectID(), CoachID: primitive.NewObjectID(), Name: "Ana"}
	testMember = domain.MemberPrincipal{ID: primitive.NewObjectID(), Name: "Jane"}
)

// --- Stubs ---
// Each stub embeds its interface; calling a method the test did not
// override panics, which gin's recovery turns into a failed assertion.

type stubAuth struct {
	service.AuthService
	loginToken string
	loginUser  *domain.User
	loginErr   error
}

func (s *stubAuth) ParseToken(token string) (domain.Principal, error) {
	switch token {
	case "admin-token":
		return testAdmin, nil
	case "coach-token":
		return testCoach, nil
	case "member-token":
		return testMember, nil
	}
	return nil, service.ErrInvalidToken
}

func (s *stubAuth) Login(_ context.Context, _, _ string) (string, *domain.User, error) {
	return s.loginToken, s.loginUser, s.loginErr
}

func (s *stubAuth) TokenTTL() time.Duration { return time.Hour }

func (s *stubAuth) CurrentUser(_ context.Context, p domain.Principal) (*domain.User, error) {
	return &domain.User{ID: p.UserID(), Name: "Jane", Email: "jane@example.com", Role: p.Role()}, nil
}

type stubApplications struct {
	service.ApplicationService
	submitErr   error
	lastSubmit  service.SubmitApplicationInput
	decision    *service.DecisionResult
	declineErr  error
	lastReason  string
	deletedAll  int64
	listErr     error
	lastFilter  *domain.ApplicationStatus
	listResults []domain.Application
}

func (s *stubApplications) Submit(_ context.Context, m domain.MemberPrincipal, in service.SubmitApplicationInput) (*domain.Application, error) {
	s.lastSubmit = in
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	return &domain.Application{ID: primitive.NewObjectID(), ApplicantID: m.ID, Status: domain.ApplicationPending}, nil
}

func (s *stubApplications) Decline(_ context.Context, _ domain.AdminPrincipal, _ primitive.ObjectID, reason string) (*service.DecisionResult, error) {
	s.lastReason = reason
	return s.decision, s.declineErr
}

func (s *stubApplications) DeleteAllArchived(context.Context) (int64, error) {
	return s.deletedAll, nil
}

func (s *stubApplications) List(_ context.Context, f repository.ApplicationFilter) ([]domain.Application, error) {
	s.lastFilter = f.Status
	return s.listResults, s.listErr
}

type stubBookings struct {
	service.BookingService
	bookErr    error
	lastBook   service.BookInput
	lastViewer domain.Principal
}

func (s *stubBookings) GetAvailability(_ context.Context, viewer domain.Principal, coachID primitive.ObjectID, date string) (*service.Availability, error) {
	s.lastViewer = viewer
	return &service.Availability{CoachID: coachID.Hex(), Date: date, Slots: domain.Slots(), Available: []string{"10:00"}}, nil
}

func (s *stubBookings) Book(_ context.Context, m domain.MemberPrincipal, in service.BookInput) (*domain.Booking, error) {
	s.lastBook = in
	if s.bookErr != nil {
		return nil, s.bookErr
	}
	return &domain.Booking{ID: primitive.NewObjectID(), MemberID: m.ID, Date: in.Date, StartTime: in.StartTime, Status: domain.BookingScheduled}, nil
}

type stubUploads struct {
	service.UploadService
	lastType string
	lastSize int64
	body     []byte
}

func (s *stubUploads) MaxBytes() int64 { return 1 << 20 }

func (s *stubUploads) Upload(_ context.Context, _ domain.Principal, kind domain.UploadKind, contentType string, size int64, body io.Reader) (string, error) {
	s.lastType = contentType
	s.lastSize = size
	s.body, _ = io.ReadAll(body)
	return "https://cdn.test/" + kind.Prefix() + "x.png", nil
}

// --- Helpers ---

func newTestRouter(t *testing.T, svc Services) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, RegisterValidators())
	if svc.Auth == nil {
		svc.Auth = &stubAuth{}
	}
	router := gin.New()
	router.Use(gin.Recovery())
	SetupRoutes(router, svc, false)
	return router
}

func doJSON(router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

// --- Tests ---

func TestProtectedRoutesRequireSession(t *testing.T) {
	router := newTestRouter(t, Services{})

	w := doJSON(router, http.MethodGet, "/api/applications/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodGet, "/api/applications/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodGet, "/api/admin/stats", "member-token", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(router, http.MethodGet, "/api/coach/clients", "admin-token", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSessionCookieAuthenticates(t *testing.T) {
	router := newTestRouter(t, Services{})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "member-token"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var user UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, testMember.ID.Hex(), user.ID)
	assert.Equal(t, domain.RoleMember, user.Role)
}

func TestLoginSetsHttpOnlyCookie(t *testing.T) {
	auth := &stubAuth{
		loginToken: "member-token",
		loginUser:  &domain.User{ID: testMember.ID, Name: "Jane", Email: "jane@example.com", Role: domain.RoleMember},
	}
	router := newTestRouter(t, Services{Auth: auth})

	w := doJSON(router, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "jane@example.com", Password: "secret-pass"})
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.Equal(t, "member-token", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	auth.loginErr = service.ErrAuthenticationFailed
	w = doJSON(router, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "jane@example.com", Password: "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestSubmitApplicationMapsServiceErrors(t *testing.T) {
	apps := &stubApplications{}
	router := newTestRouter(t, Services{Applications: apps})
	req := SubmitApplicationRequest{
		FullName:       "Jane Doe",
		HeightCm:       175,
		WeightKg:       70,
		PackageID:      primitive.NewObjectID().Hex(),
		CoachID:        primitive.NewObjectID().Hex(),
		WaiverAccepted: true,
	}

	w := doJSON(router, http.MethodPost, "/api/applications", "member-token", req)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, apps.lastSubmit.WaiverAccepted)
	assert.Equal(t, 175.0, apps.lastSubmit.HeightCm)

	apps.submitErr = &service.ValidationError{Message: "you must accept the waiver before submitting"}
	w = doJSON(router, http.MethodPost, "/api/applications", "member-token", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "you must accept the waiver before submitting", errorMessage(t, w))

	apps.submitErr = service.ErrActiveApplicationExists
	w = doJSON(router, http.MethodPost, "/api/applications", "member-token", req)
	assert.Equal(t, http.StatusConflict, w.Code)

	apps.submitErr = errors.New("connection reset")
	w = doJSON(router, http.MethodPost, "/api/applications", "member-token", req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "An unexpected error occurred", errorMessage(t, w))

	req.PackageID = "not-an-id"
	w = doJSON(router, http.MethodPost, "/api/applications", "member-token", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeclineReportsRefund(t *testing.T) {
	apps := &stubApplications{decision: &service.DecisionResult{
		Application:     &domain.Application{Status: domain.ApplicationDeclined},
		RefundInitiated: true,
	}}
	router := newTestRouter(t, Services{Applications: apps})
	path := "/api/admin/applications/" + primitive.NewObjectID().Hex() + "/decline"

	w := doJSON(router, http.MethodPost, path, "admin-token", DeclineRequest{Reason: "capacity"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp DecisionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.RefundInitiated)
	assert.Contains(t, w.Body.String(), `"refund_initiated":true`)
	assert.Equal(t, "capacity", apps.lastReason)

	// No body is fine.
	w = doJSON(router, http.MethodPost, path, "admin-token", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	apps.declineErr = service.ErrRefundFailed
	w = doJSON(router, http.MethodPost, path, "admin-token", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = doJSON(router, http.MethodPost, "/api/admin/applications/nope/decline", "admin-token", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListApplicationsFilters(t *testing.T) {
	apps := &stubApplications{}
	router := newTestRouter(t, Services{Applications: apps})

	w := doJSON(router, http.MethodGet, "/api/admin/applications?status=pending", "admin-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
	require.NotNil(t, apps.lastFilter)
	assert.Equal(t, domain.ApplicationPending, *apps.lastFilter)

	w = doJSON(router, http.MethodGet, "/api/admin/applications?status=bogus", "admin-token", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(router, http.MethodGet, "/api/admin/applications?archived=maybe", "admin-token", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteAllArchivedReturnsCount(t *testing.T) {
	router := newTestRouter(t, Services{Applications: &stubApplications{deletedAll: 3}})

	w := doJSON(router, http.MethodDelete, "/api/admin/applications/archived", "admin-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted_count":3}`, w.Body.String())
}

func TestAvailabilityIsPublic(t *testing.T) {
	bookings := &stubBookings{}
	router := newTestRouter(t, Services{Bookings: bookings})
	coachID := primitive.NewObjectID().Hex()

	w := doJSON(router, http.MethodGet, "/api/bookings/availability?coach_id="+coachID+"&date=2030-06-03", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, bookings.lastViewer)

	w = doJSON(router, http.MethodGet, "/api/bookings/availability?coach_id="+coachID+"&date=2030-06-03", "member-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testMember, bookings.lastViewer)

	w = doJSON(router, http.MethodGet, "/api/bookings/availability?coach_id="+coachID+"&date=03/06/2030", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateBookingConflict(t *testing.T) {
	bookings := &stubBookings{}
	router := newTestRouter(t, Services{Bookings: bookings})
	req := BookRequest{
		ApplicationID: primitive.NewObjectID().Hex(),
		CoachID:       primitive.NewObjectID().Hex(),
		Date:          "2030-06-03",
		StartTime:     "14:00",
	}

	w := doJSON(router, http.MethodPost, "/api/bookings", "member-token", req)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "14:00", bookings.lastBook.StartTime)

	bookings.bookErr = service.ErrSlotUnavailable
	w = doJSON(router, http.MethodPost, "/api/bookings", "member-token", req)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "slot no longer available", errorMessage(t, w))

	req.StartTime = "14:30"
	w = doJSON(router, http.MethodPost, "/api/bookings", "member-token", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/api/bookings", "coach-token", req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUploadImageMultipart(t *testing.T) {
	uploads := &stubUploads{}
	router := newTestRouter(t, Services{Uploads: uploads})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="id.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads/pictures", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer member-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "image/png", uploads.lastType)
	assert.Equal(t, int64(len("png-bytes")), uploads.lastSize)
	assert.Equal(t, "png-bytes", string(uploads.body))
	assert.True(t, strings.Contains(w.Body.String(), "https://cdn.test/pictures/"))

	w = doJSON(router, http.MethodPost, "/api/uploads/avatars", "member-token", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, Services{})
	w := doJSON(router, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	router = newTestRouter(t, Services{Ping: func(context.Context) error { return errors.New("no primary") }})
	w = doJSON(router, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORSMiddleware("http://localhost:5173"))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.test")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

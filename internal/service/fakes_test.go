package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/events"
	"alcyxob/gym-app/internal/mailer"
	"alcyxob/gym-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory stand-ins for the Mongo repositories. They enforce the same
// unique constraints the indexes do.

type memUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]domain.User
}

func newMemUsers() *memUsers { return &memUsers{users: map[primitive.ObjectID]domain.User{}} }

func (r *memUsers) Create(_ context.Context, u *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now().UTC()
	r.users[u.ID] = *u
	return u.ID, nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUsers) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *memUsers) List(_ context.Context, role domain.Role) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.User{}
	for _, u := range r.users {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memUsers) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	r.users[id] = u
	return nil
}

func (r *memUsers) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memUsers) DeleteByCoachID(_ context.Context, coachID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, u := range r.users {
		if u.Role == domain.RoleCoach && u.CoachID != nil && *u.CoachID == coachID {
			delete(r.users, id)
			n++
		}
	}
	return n, nil
}

func (r *memUsers) CountByRole(_ context.Context, role domain.Role) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

type memApplications struct {
	mu    sync.Mutex
	apps  map[primitive.ObjectID]domain.Application
	calls int
}

func newMemApplications() *memApplications {
	return &memApplications{apps: map[primitive.ObjectID]domain.Application{}}
}

func (r *memApplications) put(app domain.Application) *domain.Application {
	r.mu.Lock()
	defer r.mu.Unlock()
	if app.ID.IsZero() {
		app.ID = primitive.NewObjectID()
	}
	r.apps[app.ID] = app
	return &app
}

func (r *memApplications) Create(_ context.Context, app *domain.Application) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	for _, existing := range r.apps {
		if existing.ApplicantID == app.ApplicantID && !existing.IsArchived {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	app.ID = primitive.NewObjectID()
	r.apps[app.ID] = *app
	return app.ID, nil
}

func (r *memApplications) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	app, ok := r.apps[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &app, nil
}

func (r *memApplications) GetActiveByApplicant(_ context.Context, applicantID primitive.ObjectID) (*domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	for _, app := range r.apps {
		if app.ApplicantID == applicantID && !app.IsArchived {
			return &app, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memApplications) matches(app domain.Application, f repository.ApplicationFilter) bool {
	if f.Archived != nil && app.IsArchived != *f.Archived {
		return false
	}
	if f.Status != nil && app.Status != *f.Status {
		return false
	}
	if f.CoachID != nil && app.CoachID != *f.CoachID {
		return false
	}
	if f.ApplicantID != nil && app.ApplicantID != *f.ApplicantID {
		return false
	}
	return true
}

func (r *memApplications) List(_ context.Context, f repository.ApplicationFilter) ([]domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Application{}
	for _, app := range r.apps {
		if r.matches(app, f) {
			out = append(out, app)
		}
	}
	return out, nil
}

func (r *memApplications) ReplaceIf(_ context.Context, app *domain.Application, guard repository.ApplicationGuard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.apps[app.ID]
	if !ok || stored.Status != guard.Status || stored.IsArchived != guard.Archived {
		return repository.ErrUpdateFailed
	}
	if !app.IsArchived {
		for id, other := range r.apps {
			if id != app.ID && other.ApplicantID == app.ApplicantID && !other.IsArchived {
				return repository.ErrDuplicate
			}
		}
	}
	r.apps[app.ID] = *app
	return nil
}

func (r *memApplications) SetPaymentStatus(_ context.Context, id primitive.ObjectID, status domain.PaymentStatus, reference string) (*domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	app.PaymentStatus = status
	if reference != "" {
		app.PaymentReference = reference
	}
	r.apps[id] = app
	return &app, nil
}

func (r *memApplications) archivedIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	want := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := []primitive.ObjectID{}
	for id, app := range r.apps {
		if app.IsArchived && (ids == nil || want[id]) {
			out = append(out, id)
		}
	}
	return out
}

func (r *memApplications) DeleteArchived(_ context.Context, ids []primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range r.archivedIDs(ids) {
		delete(r.apps, id)
		n++
	}
	return n, nil
}

func (r *memApplications) ListArchivedIDs(_ context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.archivedIDs(ids), nil
}

func (r *memApplications) CountActiveTrainingByCoach(_ context.Context, coachID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, app := range r.apps {
		if app.CoachID == coachID && app.HasActiveTraining() {
			n++
		}
	}
	return n, nil
}

func (r *memApplications) Count(_ context.Context, f repository.ApplicationFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, app := range r.apps {
		if r.matches(app, f) {
			n++
		}
	}
	return n, nil
}

func (r *memApplications) Revenue(context.Context) ([]repository.RevenueBucket, error) {
	return []repository.RevenueBucket{}, nil
}

type memCoaches struct {
	mu      sync.Mutex
	coaches map[primitive.ObjectID]domain.Coach
}

func newMemCoaches() *memCoaches { return &memCoaches{coaches: map[primitive.ObjectID]domain.Coach{}} }

func (r *memCoaches) add(c domain.Coach) domain.Coach {
	c.ID = primitive.NewObjectID()
	r.mu.Lock()
	r.coaches[c.ID] = c
	r.mu.Unlock()
	return c
}

func (r *memCoaches) Create(_ context.Context, c *domain.Coach) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = primitive.NewObjectID()
	r.coaches[c.ID] = *c
	return c.ID, nil
}

func (r *memCoaches) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Coach, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.coaches[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *memCoaches) List(_ context.Context, activeOnly bool) ([]domain.Coach, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Coach{}
	for _, c := range r.coaches {
		if !activeOnly || c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCoaches) Update(_ context.Context, c *domain.Coach) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.coaches[c.ID]; !ok {
		return repository.ErrNotFound
	}
	r.coaches[c.ID] = *c
	return nil
}

func (r *memCoaches) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.coaches[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.coaches, id)
	return nil
}

func (r *memCoaches) IncrementClientCount(_ context.Context, id primitive.ObjectID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.coaches[id]
	if !ok || c.ClientCount+delta < 0 {
		return nil
	}
	c.ClientCount += delta
	r.coaches[id] = c
	return nil
}

func (r *memCoaches) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.coaches)), nil
}

type memPackages struct {
	mu   sync.Mutex
	pkgs map[primitive.ObjectID]domain.Package
}

func newMemPackages() *memPackages { return &memPackages{pkgs: map[primitive.ObjectID]domain.Package{}} }

func (r *memPackages) add(p domain.Package) domain.Package {
	p.ID = primitive.NewObjectID()
	r.mu.Lock()
	r.pkgs[p.ID] = p
	r.mu.Unlock()
	return p
}

func (r *memPackages) Create(_ context.Context, p *domain.Package) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = primitive.NewObjectID()
	r.pkgs[p.ID] = *p
	return p.ID, nil
}

func (r *memPackages) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Package, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pkgs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *memPackages) List(context.Context) ([]domain.Package, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Package{}
	for _, p := range r.pkgs {
		out = append(out, p)
	}
	return out, nil
}

func (r *memPackages) Update(_ context.Context, p *domain.Package) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pkgs[p.ID]; !ok {
		return repository.ErrNotFound
	}
	r.pkgs[p.ID] = *p
	return nil
}

func (r *memPackages) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pkgs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.pkgs, id)
	return nil
}

func (r *memPackages) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.pkgs)), nil
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[primitive.ObjectID]domain.TrainingSession
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[primitive.ObjectID]domain.TrainingSession{}}
}

func (r *memSessions) Create(_ context.Context, s *domain.TrainingSession) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = primitive.NewObjectID()
	s.CreatedAt = time.Now().UTC()
	r.sessions[s.ID] = *s
	return s.ID, nil
}

func (r *memSessions) GetByID(_ context.Context, id primitive.ObjectID) (*domain.TrainingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *memSessions) ListByApplication(_ context.Context, appID primitive.ObjectID) ([]domain.TrainingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.TrainingSession{}
	for _, s := range r.sessions {
		if s.ApplicationID == appID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (r *memSessions) Update(_ context.Context, s *domain.TrainingSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; !ok {
		return repository.ErrNotFound
	}
	r.sessions[s.ID] = *s
	return nil
}

func (r *memSessions) DeleteByApplications(_ context.Context, ids []primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, appID := range ids {
		for id, s := range r.sessions {
			if s.ApplicationID == appID {
				delete(r.sessions, id)
			}
		}
	}
	return nil
}

type memBookings struct {
	mu       sync.Mutex
	bookings map[primitive.ObjectID]domain.Booking
}

func newMemBookings() *memBookings { return &memBookings{bookings: map[primitive.ObjectID]domain.Booking{}} }

func (r *memBookings) Create(_ context.Context, b *domain.Booking) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.bookings {
		if existing.Status == domain.BookingScheduled && existing.CoachID == b.CoachID &&
			existing.Date == b.Date && existing.StartTime == b.StartTime {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	b.ID = primitive.NewObjectID()
	if b.Status == "" {
		b.Status = domain.BookingScheduled
	}
	r.bookings[b.ID] = *b
	return b.ID, nil
}

func (r *memBookings) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (r *memBookings) filter(keep func(domain.Booking) bool) []domain.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Booking{}
	for _, b := range r.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

func (r *memBookings) ListScheduledForCoachDate(_ context.Context, coachID primitive.ObjectID, date string) ([]domain.Booking, error) {
	return r.filter(func(b domain.Booking) bool {
		return b.CoachID == coachID && b.Date == date && b.Status == domain.BookingScheduled
	}), nil
}

func (r *memBookings) ListByMember(_ context.Context, memberID primitive.ObjectID) ([]domain.Booking, error) {
	return r.filter(func(b domain.Booking) bool { return b.MemberID == memberID }), nil
}

func (r *memBookings) ListByCoach(_ context.Context, coachID primitive.ObjectID) ([]domain.Booking, error) {
	return r.filter(func(b domain.Booking) bool { return b.CoachID == coachID }), nil
}

func (r *memBookings) UpdateStatus(_ context.Context, id primitive.ObjectID, from, to domain.BookingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.Status != from {
		return repository.ErrUpdateFailed
	}
	b.Status = to
	r.bookings[id] = b
	return nil
}

func (r *memBookings) CancelScheduledForApplication(_ context.Context, appID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, b := range r.bookings {
		if b.ApplicationID == appID && b.Status == domain.BookingScheduled {
			b.Status = domain.BookingCancelled
			r.bookings[id] = b
			n++
		}
	}
	return n, nil
}

func (r *memBookings) DeleteByApplications(_ context.Context, ids []primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, appID := range ids {
		for id, b := range r.bookings {
			if b.ApplicationID == appID {
				delete(r.bookings, id)
			}
		}
	}
	return nil
}

func (r *memBookings) CountScheduled(context.Context) (int64, error) {
	return int64(len(r.filter(func(b domain.Booking) bool { return b.Status == domain.BookingScheduled }))), nil
}

type memHolds struct {
	mu    sync.Mutex
	holds []domain.SlotHold
}

func (r *memHolds) Create(_ context.Context, h *domain.SlotHold) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.holds {
		if existing.CoachID == h.CoachID && existing.Date == h.Date && existing.StartTime == h.StartTime {
			return repository.ErrDuplicate
		}
	}
	h.ID = primitive.NewObjectID()
	r.holds = append(r.holds, *h)
	return nil
}

func (r *memHolds) GetByToken(_ context.Context, token string) (*domain.SlotHold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.holds {
		if h.Token == token {
			return &h, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memHolds) ListForCoachDate(_ context.Context, coachID primitive.ObjectID, date string) ([]domain.SlotHold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.SlotHold{}
	for _, h := range r.holds {
		if h.CoachID == coachID && h.Date == date {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *memHolds) DeleteExpired(_ context.Context, coachID primitive.ObjectID, date, start string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.holds[:0]
	for _, h := range r.holds {
		if h.CoachID == coachID && h.Date == date && h.StartTime == start && !h.Live(now) {
			continue
		}
		kept = append(kept, h)
	}
	r.holds = kept
	return nil
}

func (r *memHolds) DeleteByToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, h := range r.holds {
		if h.Token == token {
			r.holds = append(r.holds[:i], r.holds[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type memOTPs struct {
	mu   sync.Mutex
	otps map[string]domain.OTP
}

func newMemOTPs() *memOTPs { return &memOTPs{otps: map[string]domain.OTP{}} }

func otpKey(email string, purpose domain.OTPPurpose) string { return email + "|" + string(purpose) }

func (r *memOTPs) Upsert(_ context.Context, otp *domain.OTP) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := otpKey(otp.Email, otp.Purpose)
	if existing, ok := r.otps[key]; ok {
		otp.ID = existing.ID
	} else {
		otp.ID = primitive.NewObjectID()
	}
	r.otps[key] = *otp
	return nil
}

func (r *memOTPs) Get(_ context.Context, email string, purpose domain.OTPPurpose) (*domain.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	otp, ok := r.otps[otpKey(email, purpose)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &otp, nil
}

func (r *memOTPs) IncrementAttempts(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, otp := range r.otps {
		if otp.ID == id {
			otp.Attempts++
			r.otps[key] = otp
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *memOTPs) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, otp := range r.otps {
		if otp.ID == id {
			delete(r.otps, key)
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- Collaborators ---

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *recordingPublisher) has(subject string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.subjects {
		if s == subject {
			return true
		}
	}
	return false
}

var _ events.Publisher = (*recordingPublisher)(nil)

type fakeGateway struct {
	mu      sync.Mutex
	err     error
	refunds []float64
}

func (g *fakeGateway) RequestRefund(_ context.Context, _ *domain.Application, amount float64, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.refunds = append(g.refunds, amount)
	return nil
}

type captureMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *captureMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) last() mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

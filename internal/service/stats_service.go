package service

import (
	"context"

	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/repository"
)

// Stats is the admin dashboard summary.
type Stats struct {
	TotalApplications int64 `json:"totalApplications"`
	PendingReviews    int64 `json:"pendingReviews"`
	Approved          int64 `json:"approved"`
	Declined          int64 `json:"declined"`
	Archived          int64 `json:"archived"`
	ActiveMembers     int64 `json:"activeMembers"`
	Members           int64 `json:"members"`
	Coaches           int64 `json:"coaches"`
	Packages          int64 `json:"packages"`
	ScheduledBookings int64 `json:"scheduledBookings"`
}

type Revenue struct {
	Total  float64                    `json:"total"`
	Months []repository.RevenueBucket `json:"months"`
}

type StatsService interface {
	Stats(ctx context.Context) (*Stats, error)
	Revenue(ctx context.Context) (*Revenue, error)
}

type statsService struct {
	appRepo     repository.ApplicationRepository
	userRepo    repository.UserRepository
	coachRepo   repository.CoachRepository
	packageRepo repository.PackageRepository
	bookingRepo repository.BookingRepository
}

func NewStatsService(
	appRepo repository.ApplicationRepository,
	userRepo repository.UserRepository,
	coachRepo repository.CoachRepository,
	packageRepo repository.PackageRepository,
	bookingRepo repository.BookingRepository,
) StatsService {
	return &statsService{
		appRepo:     appRepo,
		userRepo:    userRepo,
		coachRepo:   coachRepo,
		packageRepo: packageRepo,
		bookingRepo: bookingRepo,
	}
}

func (s *statsService) Stats(ctx context.Context) (*Stats, error) {
	active, archived := false, true
	pending := domain.ApplicationPending
	approved := domain.ApplicationApproved
	declined := domain.ApplicationDeclined

	var st Stats
	counts := []struct {
		dst *int64
		fn  func() (int64, error)
	}{
		{&st.TotalApplications, func() (int64, error) { return s.appRepo.Count(ctx, repository.ApplicationFilter{}) }},
		{&st.PendingReviews, func() (int64, error) {
			return s.appRepo.Count(ctx, repository.ApplicationFilter{Archived: &active, Status: &pending})
		}},
		{&st.Approved, func() (int64, error) { return s.appRepo.Count(ctx, repository.ApplicationFilter{Status: &approved}) }},
		{&st.Declined, func() (int64, error) { return s.appRepo.Count(ctx, repository.ApplicationFilter{Status: &declined}) }},
		{&st.Archived, func() (int64, error) { return s.appRepo.Count(ctx, repository.ApplicationFilter{Archived: &archived}) }},
		{&st.ActiveMembers, func() (int64, error) {
			return s.appRepo.Count(ctx, repository.ApplicationFilter{Archived: &active, Status: &approved})
		}},
		{&st.Members, func() (int64, error) { return s.userRepo.CountByRole(ctx, domain.RoleMember) }},
		{&st.Coaches, func() (int64, error) { return s.coachRepo.Count(ctx) }},
		{&st.Packages, func() (int64, error) { return s.packageRepo.Count(ctx) }},
		{&st.ScheduledBookings, func() (int64, error) { return s.bookingRepo.CountScheduled(ctx) }},
	}
	for _, c := range counts {
		n, err := c.fn()
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}
	return &st, nil
}

// Revenue sums package prices of applications with a completed payment.
func (s *statsService) Revenue(ctx context.Context) (*Revenue, error) {
	buckets, err := s.appRepo.Revenue(ctx)
	if err != nil {
		return nil, err
	}
	out := &Revenue{Months: buckets}
	for _, b := range buckets {
		out.Total += b.Total
	}
	return out, nil
}

package gymclient

import "time"

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CoachID   string    `json:"coachId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Application struct {
	ID               string     `json:"id"`
	ApplicantID      string     `json:"applicantId"`
	FullName         string     `json:"fullName"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone,omitempty"`
	Age              int        `json:"age,omitempty"`
	HeightCm         float64    `json:"heightCm"`
	WeightKg         float64    `json:"weightKg"`
	IDImageURL       string     `json:"idImageUrl,omitempty"`
	PackageID        string     `json:"packageId"`
	CoachID          string     `json:"coachId"`
	WaiverAccepted   bool       `json:"waiverAccepted"`
	PaymentStatus    string     `json:"paymentStatus"`
	PaymentReference string     `json:"paymentReference,omitempty"`
	Status           string     `json:"status"`
	TrainingStatus   string     `json:"trainingStatus"`
	DeclineReason    string     `json:"declineReason,omitempty"`
	IsArchived       bool       `json:"isArchived"`
	ArchivedAt       *time.Time `json:"archivedAt,omitempty"`
	SubmittedAt      time.Time  `json:"submittedAt"`
	ReviewedAt       *time.Time `json:"reviewedAt,omitempty"`
	ReviewerName     string     `json:"reviewerName,omitempty"`
}

// Decision is the result of a decline or cancel.
type Decision struct {
	Application     Application `json:"application"`
	RefundInitiated bool        `json:"refund_initiated"`
}

type ArchiveResult struct {
	Application       Application `json:"application"`
	TrainingCancelled bool        `json:"trainingCancelled"`
	BookingsCancelled int64       `json:"bookingsCancelled"`
}

type Coach struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	Bio               string   `json:"bio,omitempty"`
	Specialty         string   `json:"specialty,omitempty"`
	Certifications    []string `json:"certifications,omitempty"`
	YearsOfExperience int      `json:"yearsOfExperience"`
	Availability      string   `json:"availability,omitempty"`
	Rating            float64  `json:"rating"`
	IsActive          bool     `json:"isActive"`
	ClientCount       int      `json:"clientCount"`
	PictureURL        string   `json:"pictureUrl,omitempty"`
}

type Package struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	PictureURL  string  `json:"pictureUrl,omitempty"`
}

type Slot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Availability struct {
	CoachID           string   `json:"coachId"`
	Date              string   `json:"date"`
	CoachAvailability string   `json:"coachAvailability,omitempty"`
	Slots             []Slot   `json:"slots"`
	Booked            []string `json:"booked"`
	Held              []string `json:"held"`
	Available         []string `json:"available"`
}

// IsAvailable reports whether start can be selected.
func (a *Availability) IsAvailable(start string) bool {
	for _, s := range a.Available {
		if s == start {
			return true
		}
	}
	return false
}

type Hold struct {
	CoachID   string    `json:"coachId"`
	Date      string    `json:"date"`
	StartTime string    `json:"startTime"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Booking struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"applicationId"`
	CoachID       string    `json:"coachId"`
	MemberID      string    `json:"memberId"`
	Date          string    `json:"date"`
	StartTime     string    `json:"startTime"`
	EndTime       string    `json:"endTime"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type TrainingSession struct {
	ID            string  `json:"id"`
	ApplicationID string  `json:"applicationId"`
	CoachID       string  `json:"coachId"`
	Date          string  `json:"date"`
	WeightKg      float64 `json:"weightKg"`
	Notes         string  `json:"notes,omitempty"`
}

type ProgressPoint struct {
	Date     string  `json:"date"`
	WeightKg float64 `json:"weightKg"`
	BMI      float64 `json:"bmi"`
	Initial  bool    `json:"initial,omitempty"`
	Notes    string  `json:"notes,omitempty"`
}

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

type RevenueMonth struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

type Revenue struct {
	Total  float64        `json:"total"`
	Months []RevenueMonth `json:"months"`
}

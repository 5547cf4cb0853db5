package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ApplicationStatus is the review state of a membership application.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationDeclined ApplicationStatus = "declined"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationApproved, ApplicationDeclined:
		return true
	}
	return false
}

// PaymentStatus mirrors what the payment collaborator reported.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentFailed    PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentRefunded, PaymentFailed:
		return true
	}
	return false
}

// TrainingStatus tracks the membership/training engagement an approved
// application opens.
type TrainingStatus string

const (
	TrainingNone      TrainingStatus = "none"
	TrainingActive    TrainingStatus = "active"
	TrainingCancelled TrainingStatus = "cancelled"
)

// Application is one membership request. Archival is orthogonal to Status.
type Application struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ApplicantID primitive.ObjectID `bson:"applicantId" json:"applicantId"`

	// Applicant identity snapshot taken at submission.
	FullName   string  `bson:"fullName" json:"fullName"`
	Email      string  `bson:"email" json:"email"`
	Phone      string  `bson:"phone,omitempty" json:"phone,omitempty"`
	Age        int     `bson:"age,omitempty" json:"age,omitempty"`
	HeightCm   float64 `bson:"heightCm" json:"heightCm"`
	WeightKg   float64 `bson:"weightKg" json:"weightKg"`
	IDImageURL string  `bson:"idImageUrl,omitempty" json:"idImageUrl,omitempty"`

	PackageID      primitive.ObjectID `bson:"packageId" json:"packageId"`
	CoachID        primitive.ObjectID `bson:"coachId" json:"coachId"`
	WaiverAccepted bool               `bson:"waiverAccepted" json:"waiverAccepted"`

	PaymentStatus    PaymentStatus     `bson:"paymentStatus" json:"paymentStatus"`
	PaymentReference string            `bson:"paymentReference,omitempty" json:"paymentReference,omitempty"`
	Status           ApplicationStatus `bson:"status" json:"status"`
	TrainingStatus   TrainingStatus    `bson:"trainingStatus" json:"trainingStatus"`
	DeclineReason    string            `bson:"declineReason,omitempty" json:"declineReason,omitempty"`

	IsArchived bool       `bson:"isArchived" json:"isArchived"`
	ArchivedAt *time.Time `bson:"archivedAt,omitempty" json:"archivedAt,omitempty"`

	SubmittedAt  time.Time           `bson:"submittedAt" json:"submittedAt"`
	ReviewedAt   *time.Time          `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
	ReviewerID   *primitive.ObjectID `bson:"reviewerId,omitempty" json:"reviewerId,omitempty"`
	ReviewerName string              `bson:"reviewerName,omitempty" json:"reviewerName,omitempty"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}

func (a *Application) CanApprove() bool {
	return !a.IsArchived && a.Status == ApplicationPending
}

// CanDecline only allows declining before review; an approved application
// has to be archived instead.
func (a *Application) CanDecline() bool {
	return !a.IsArchived && a.Status == ApplicationPending
}

// CanCancel is the applicant's self-service withdrawal, pre-review only.
func (a *Application) CanCancel() bool {
	return !a.IsArchived && a.Status == ApplicationPending
}

// NeedsRefund reports whether declining must ask the payment gateway for
// a refund.
func (a *Application) NeedsRefund() bool {
	return a.PaymentStatus == PaymentCompleted
}

// HasActiveTraining reports whether the coach is currently engaged.
func (a *Application) HasActiveTraining() bool {
	return !a.IsArchived && a.Status == ApplicationApproved && a.TrainingStatus == TrainingActive
}

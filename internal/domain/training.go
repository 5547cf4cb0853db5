package domain

import (
	"math"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrainingSession is one logged training event for an application.
type TrainingSession struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ApplicationID primitive.ObjectID `bson:"applicationId" json:"applicationId"`
	CoachID       primitive.ObjectID `bson:"coachId" json:"coachId"`
	Date          string             `bson:"date" json:"date"` // YYYY-MM-DD
	WeightKg      float64            `bson:"weightKg" json:"weightKg"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ProgressPoint is one entry of the weight/BMI chart.
type ProgressPoint struct {
	Date     string  `json:"date"`
	WeightKg float64 `json:"weightKg"`
	BMI      float64 `json:"bmi"`
	Initial  bool    `json:"initial,omitempty"`
	Notes    string  `json:"notes,omitempty"`
}

// ComputeBMI returns weight / height_m², rounded to one decimal. A
// non-positive height yields 0.
func ComputeBMI(weightKg, heightCm float64) float64 {
	if heightCm <= 0 {
		return 0
	}
	m := heightCm / 100
	return math.Round(weightKg/(m*m)*10) / 10
}

// BuildProgress returns the application's initial snapshot followed by
// the sessions in ascending date order. Values are plotted as recorded.
func BuildProgress(app *Application, sessions []TrainingSession) []ProgressPoint {
	sorted := make([]TrainingSession, len(sessions))
	copy(sorted, sessions)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	points := make([]ProgressPoint, 0, len(sorted)+1)
	points = append(points, ProgressPoint{
		Date:     app.SubmittedAt.UTC().Format(DateLayout),
		WeightKg: app.WeightKg,
		BMI:      ComputeBMI(app.WeightKg, app.HeightCm),
		Initial:  true,
	})
	for _, s := range sorted {
		points = append(points, ProgressPoint{
			Date:     s.Date,
			WeightKg: s.WeightKg,
			BMI:      ComputeBMI(s.WeightKg, app.HeightCm),
			Notes:    s.Notes,
		})
	}
	return points
}

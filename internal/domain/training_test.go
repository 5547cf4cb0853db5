package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeBMI(t *testing.T) {
	assert.Equal(t, 22.9, ComputeBMI(70, 175))
	assert.Equal(t, 0.0, ComputeBMI(70, 0))
	assert.Equal(t, 24.7, ComputeBMI(80, 180))
}

func TestBuildProgressOrdersSessionsAfterSnapshot(t *testing.T) {
	app := &Application{
		HeightCm:    175,
		WeightKg:    80,
		SubmittedAt: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
	}
	sessions := []TrainingSession{
		{Date: "2026-02-01", WeightKg: 75, Notes: "cardio"},
		{Date: "2026-01-10", WeightKg: 79},
		{Date: "2026-01-20", WeightKg: 140}, // outliers are plotted as-is
	}

	points := BuildProgress(app, sessions)
	require.Len(t, points, 4)

	assert.True(t, points[0].Initial)
	assert.Equal(t, "2026-01-05", points[0].Date)
	assert.Equal(t, 26.1, points[0].BMI)

	assert.Equal(t, []string{"2026-01-10", "2026-01-20", "2026-02-01"},
		[]string{points[1].Date, points[2].Date, points[3].Date})
	assert.Equal(t, 140.0, points[2].WeightKg)
	assert.Equal(t, "cardio", points[3].Notes)

	// input slice untouched
	assert.Equal(t, "2026-02-01", sessions[0].Date)
}

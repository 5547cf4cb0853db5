package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewPrincipalVariants(t *testing.T) {
	uid := primitive.NewObjectID()
	cid := primitive.NewObjectID()

	p, err := NewPrincipal(RoleAdmin, uid, "Ann", nil)
	require.NoError(t, err)
	assert.IsType(t, AdminPrincipal{}, p)

	p, err = NewPrincipal(RoleCoach, uid, "Cole", &cid)
	require.NoError(t, err)
	coach, ok := p.(CoachPrincipal)
	require.True(t, ok)
	assert.Equal(t, cid, coach.CoachID)

	p, err = NewPrincipal(RoleMember, uid, "Max", nil)
	require.NoError(t, err)
	assert.Equal(t, RoleMember, p.Role())
	assert.Equal(t, uid, p.UserID())
}

func TestNewPrincipalRejectsIncompleteClaims(t *testing.T) {
	uid := primitive.NewObjectID()

	_, err := NewPrincipal(RoleCoach, uid, "Cole", nil)
	assert.ErrorIs(t, err, ErrInvalidPrincipal)

	_, err = NewPrincipal("trainer", uid, "x", nil)
	assert.ErrorIs(t, err, ErrInvalidPrincipal)

	_, err = NewPrincipal(RoleMember, primitive.NilObjectID, "x", nil)
	assert.ErrorIs(t, err, ErrInvalidPrincipal)
}

func TestApplicationPredicates(t *testing.T) {
	app := &Application{Status: ApplicationPending, PaymentStatus: PaymentCompleted}
	assert.True(t, app.CanApprove())
	assert.True(t, app.CanDecline())
	assert.True(t, app.CanCancel())
	assert.True(t, app.NeedsRefund())

	app.Status = ApplicationApproved
	assert.False(t, app.CanDecline())
	assert.False(t, app.CanCancel())

	app.TrainingStatus = TrainingActive
	assert.True(t, app.HasActiveTraining())

	app.IsArchived = true
	assert.False(t, app.CanApprove())
	assert.False(t, app.HasActiveTraining())
}

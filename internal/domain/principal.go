package domain

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidPrincipal = errors.New("invalid principal")

// Principal is the authenticated caller of a request. It is resolved once
// from the token claims; consumers switch on the concrete type.
//
//	switch p := principal.(type) {
//	case domain.AdminPrincipal:
//	case domain.CoachPrincipal:
//	case domain.MemberPrincipal:
//	}
type Principal interface {
	Role() Role
	UserID() primitive.ObjectID
	principal()
}

type AdminPrincipal struct {
	ID   primitive.ObjectID
	Name string
}

type CoachPrincipal struct {
	ID      primitive.ObjectID
	CoachID primitive.ObjectID
	Name    string
}

type MemberPrincipal struct {
	ID   primitive.ObjectID
	Name string
}

func (AdminPrincipal) Role() Role  { return RoleAdmin }
func (CoachPrincipal) Role() Role  { return RoleCoach }
func (MemberPrincipal) Role() Role { return RoleMember }

func (p AdminPrincipal) UserID() primitive.ObjectID  { return p.ID }
func (p CoachPrincipal) UserID() primitive.ObjectID  { return p.ID }
func (p MemberPrincipal) UserID() primitive.ObjectID { return p.ID }

func (AdminPrincipal) principal()  {}
func (CoachPrincipal) principal()  {}
func (MemberPrincipal) principal() {}

// NewPrincipal builds the typed variant for role. coachID is required for
// coaches and ignored otherwise.
func NewPrincipal(role Role, userID primitive.ObjectID, name string, coachID *primitive.ObjectID) (Principal, error) {
	if userID.IsZero() {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalidPrincipal)
	}
	switch role {
	case RoleAdmin:
		return AdminPrincipal{ID: userID, Name: name}, nil
	case RoleCoach:
		if coachID == nil || coachID.IsZero() {
			return nil, fmt.Errorf("%w: coach account without coach record", ErrInvalidPrincipal)
		}
		return CoachPrincipal{ID: userID, CoachID: *coachID, Name: name}, nil
	case RoleMember:
		return MemberPrincipal{ID: userID, Name: name}, nil
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidPrincipal, role)
	}
}

// PrincipalFromUser is NewPrincipal for a stored user record.
func PrincipalFromUser(u *User) (Principal, error) {
	return NewPrincipal(u.Role, u.ID, u.Name, u.CoachID)
}

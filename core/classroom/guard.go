package classroom

import "context"

// Access is the result of a guard check: the resolved classroom, whether the
// caller owns it, and the caller's membership when they are a plain member.
type Access struct {
	Classroom  Classroom
	Membership *Membership
	IsOwner    bool
}

// RequireMember grants access to the classroom owner or to an approved member.
// Returns ErrNotFound when the classroom is absent, ErrNotMember otherwise.
func (svc *Service) RequireMember(ctx context.Context, classroomID, userID string) (Access, error) {
	c, err := svc.repo.GetClassroom(ctx, classroomID)
	if err != nil {
		return Access{}, err
	}

	if c.IsOwnedBy(userID) {
		return Access{Classroom: c, IsOwner: true}, nil
	}

	m, err := svc.members.GetMembership(ctx, classroomID, userID)
	if err != nil || m.Status != StatusApproved {
		return Access{}, ErrNotMember
	}
	return Access{Classroom: c, Membership: &m}, nil
}

// RequireOwner grants access only to the classroom owner.
func (svc *Service) RequireOwner(ctx context.Context, classroomID, userID string) (Access, error) {
	c, err := svc.repo.GetClassroom(ctx, classroomID)
	if err != nil {
		return Access{}, err
	}
	if !c.IsOwnedBy(userID) {
		return Access{}, ErrNotOwner
	}
	return Access{Classroom: c, IsOwner: true}, nil
}

package classroom

import (
	"context"
	"fmt"
	"time"

	"github.com/edulane/darasa/core"
	"github.com/edulane/darasa/core/user"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("classroom not found")
	ErrCodeNotFound    = core.NewNotFoundError("invalid class code. no classroom found")
	ErrRequestNotFound = core.NewNotFoundError("request not found")
	ErrMemberNotFound  = core.NewNotFoundError("member not found")

	ErrNotOwner      = core.NewForbiddenError("only the classroom owner can perform this action")
	ErrNotMember     = core.NewForbiddenError("you are not an approved member of this classroom")
	ErrOwnClassroom  = core.NewForbiddenError("you are the owner of this classroom")
	ErrJoinsDisabled = core.NewForbiddenError("this classroom is not accepting join requests")
	ErrArchived      = core.NewForbiddenError("this classroom is archived")

	ErrAlreadyMember  = core.NewConflictError("already a member of this classroom")
	ErrRequestPending = core.NewConflictError("request already pending")
	ErrCodeExists     = core.NewConflictError("a classroom with that code already exists")

	ErrClassroomFull = core.NewCapacityError("classroom is full")
)

type (
	// Repository owns classroom records.
	Repository interface {
		CreateClassroom(ctx context.Context, c Classroom) (Classroom, error)
		GetClassroom(ctx context.Context, id string) (Classroom, error)
		GetClassroomByCode(ctx context.Context, code string) (Classroom, error)
		GetClassroomsByID(ctx context.Context, ids []string) ([]Classroom, error)
		// QueryClassroomsByOwner returns the owner's classrooms, newest first.
		QueryClassroomsByOwner(ctx context.Context, ownerID string) ([]Classroom, error)
		// FilterOpenClassrooms returns unarchived classrooms accepting join requests,
		// newest first, optionally filtered by name substring (case-insensitive) and
		// subject, capped at limit.
		FilterOpenClassrooms(ctx context.Context, filter DiscoverFilter, limit int) ([]Classroom, error)
		UpdateClassroom(ctx context.Context, c Classroom) (Classroom, error)
		DeleteClassroom(ctx context.Context, id string) error
		// IncrementMemberCount adjusts the cached approved-member count by delta.
		// Only membership status transitions may call this.
		IncrementMemberCount(ctx context.Context, id string, delta int) error
	}

	// MembershipRepository owns the join ledger; enforces one row per
	// (classroom, student) pair.
	MembershipRepository interface {
		CreateMembership(ctx context.Context, m Membership) (Membership, error)
		GetMembership(ctx context.Context, classroomID, studentID string) (Membership, error)
		GetMembershipByID(ctx context.Context, classroomID, id string) (Membership, error)
		QueryMembershipsByClassroom(ctx context.Context, classroomID string, statuses ...string) ([]Membership, error)
		QueryMembershipsByStudent(ctx context.Context, studentID string, statuses ...string) ([]Membership, error)
		QueryMembershipsByIDs(ctx context.Context, classroomID string, ids []string, status string) ([]Membership, error)
		CountMemberships(ctx context.Context, classroomID, status string) (int, error)
		CountPendingByClassrooms(ctx context.Context, classroomIDs []string) (map[string]int, error)
		UpdateMembership(ctx context.Context, m Membership) (Membership, error)
		// BulkSetStatus transitions the subset of ids currently in fromStatus and
		// reports how many rows actually changed.
		BulkSetStatus(ctx context.Context, classroomID string, ids []string, fromStatus, toStatus, respondedBy string, respondedAt time.Time) (int, error)
		DeleteMembership(ctx context.Context, classroomID, studentID string) (Membership, error)
		DeleteMembershipsByClassroom(ctx context.Context, classroomID string) error
	}

	// ActivityPurger removes a classroom's activity log entries on cascade delete.
	ActivityPurger interface {
		DeleteEntriesByClassroom(ctx context.Context, classroomID string) error
	}

	// UserDirectory resolves display names for notification messages.
	UserDirectory interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		repo     Repository
		members  MembershipRepository
		activity ActivityPurger
		users    UserDirectory
		notifier core.Notifier
	}
)

func NewService(repo Repository, members MembershipRepository, activity ActivityPurger, users UserDirectory, notifier core.Notifier) *Service {
	return &Service{
		repo:     repo,
		members:  members,
		activity: activity,
		users:    users,
		notifier: notifier,
	}
}

// Create registers a new classroom for the owning teacher and assigns its
// class code. Fails with ErrCodeExists on the rare code collision; callers
// may simply retry.
func (svc *Service) Create(ctx context.Context, ownerID string, nc NewClassroom) (Classroom, error) {
	now := time.Now().UTC()
	c := Classroom{
		Name:        nc.Name,
		Description: nc.Description,
		Subject:     nc.Subject,
		SubjectSlug: nc.SubjectSlug,
		ClassCode:   GenerateClassCode(nc.Subject),
		OwnerID:     ownerID,
		Settings: Settings{
			AllowJoinRequests: true,
			MaxStudents:       defaultMaxStudents,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if nc.Settings != nil {
		c.Settings.AllowJoinRequests = nc.Settings.AllowJoinRequests
		if nc.Settings.MaxStudents > 0 {
			c.Settings.MaxStudents = nc.Settings.MaxStudents
		}
	}
	return svc.repo.CreateClassroom(ctx, c)
}

func (svc *Service) Get(ctx context.Context, id string) (Classroom, error) {
	return svc.repo.GetClassroom(ctx, id)
}

// ListForOwner returns the teacher's classrooms, newest first, each enriched
// with a live pending-request count.
func (svc *Service) ListForOwner(ctx context.Context, ownerID string) ([]OwnerClassroom, error) {
	classrooms, err := svc.repo.QueryClassroomsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(classrooms))
	for _, c := range classrooms {
		ids = append(ids, c.ID)
	}
	pending, err := svc.members.CountPendingByClassrooms(ctx, ids)
	if err != nil {
		return nil, err
	}

	res := make([]OwnerClassroom, 0, len(classrooms))
	for _, c := range classrooms {
		res = append(res, OwnerClassroom{Classroom: c, PendingRequests: pending[c.ID]})
	}
	return res, nil
}

// ListForStudent returns classrooms where the student has an approved or
// pending membership, each tagged with that membership's status.
func (svc *Service) ListForStudent(ctx context.Context, studentID string) ([]StudentClassroom, error) {
	memberships, err := svc.members.QueryMembershipsByStudent(ctx, studentID, StatusApproved, StatusPending)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.ClassroomID)
	}
	classrooms, err := svc.repo.GetClassroomsByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Classroom, len(classrooms))
	for _, c := range classrooms {
		byID[c.ID] = c
	}

	res := make([]StudentClassroom, 0, len(memberships))
	for _, m := range memberships {
		c, ok := byID[m.ClassroomID]
		if !ok {
			continue // orphaned membership, cleaned up by the admin sweep
		}
		res = append(res, StudentClassroom{Classroom: c, MembershipStatus: m.Status, MembershipID: m.ID})
	}
	return res, nil
}

// Discover returns browsable classrooms (unarchived, accepting join requests),
// tagged with the caller's existing membership status if any.
func (svc *Service) Discover(ctx context.Context, userID string, filter DiscoverFilter) ([]DiscoverResult, error) {
	filter.Clean()
	classrooms, err := svc.repo.FilterOpenClassrooms(ctx, filter, discoverLimit)
	if err != nil {
		return nil, err
	}

	memberships, err := svc.members.QueryMembershipsByStudent(ctx, userID)
	if err != nil {
		return nil, err
	}
	statusByClassroom := make(map[string]string, len(memberships))
	for _, m := range memberships {
		statusByClassroom[m.ClassroomID] = m.Status
	}

	res := make([]DiscoverResult, 0, len(classrooms))
	for _, c := range classrooms {
		res = append(res, DiscoverResult{Classroom: c, MembershipStatus: statusByClassroom[c.ID]})
	}
	return res, nil
}

// Update modifies mutable classroom fields; owner only.
func (svc *Service) Update(ctx context.Context, id, ownerID string, uc UpdateClassroom) (Classroom, error) {
	access, err := svc.RequireOwner(ctx, id, ownerID)
	if err != nil {
		return Classroom{}, err
	}

	c := access.Classroom
	if uc.Name != "" {
		c.Name = uc.Name
	}
	if uc.Description != nil {
		c.Description = *uc.Description
	}
	if uc.CoverImage != nil {
		c.CoverImage = *uc.CoverImage
	}
	if uc.Settings != nil {
		c.Settings = *uc.Settings
	}
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateClassroom(ctx, c)
}

// Delete removes the classroom and cascades its memberships and activity log.
// The three deletions span independent repositories and are not atomic; a crash
// mid-cascade can leave orphaned children until the admin sweep purges them.
func (svc *Service) Delete(ctx context.Context, id, ownerID string) error {
	if _, err := svc.RequireOwner(ctx, id, ownerID); err != nil {
		return err
	}

	if err := svc.members.DeleteMembershipsByClassroom(ctx, id); err != nil {
		return err
	}
	if err := svc.activity.DeleteEntriesByClassroom(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteClassroom(ctx, id)
}

// RequestJoin files a student's request to join a classroom. A rejected
// membership is resurrected to pending (same row); approved and pending
// memberships conflict.
func (svc *Service) RequestJoin(ctx context.Context, classroomID, studentID, message string) (Membership, error) {
	c, err := svc.repo.GetClassroom(ctx, classroomID)
	if err != nil {
		return Membership{}, err
	}
	if !c.Settings.AllowJoinRequests {
		return Membership{}, ErrJoinsDisabled
	}
	if c.IsOwnedBy(studentID) {
		return Membership{}, ErrOwnClassroom
	}

	now := time.Now().UTC()

	existing, err := svc.members.GetMembership(ctx, classroomID, studentID)
	if err == nil {
		switch existing.Status {
		case StatusApproved:
			return Membership{}, ErrAlreadyMember
		case StatusPending:
			return Membership{}, ErrRequestPending
		}

		// rejected: resurrect the same row to pending
		existing.Status = StatusPending
		existing.RequestedAt = now
		existing.RequestMessage = message
		existing.RespondedAt = time.Time{}
		existing.RespondedBy = ""
		existing.RejectionReason = ""
		m, err := svc.members.UpdateMembership(ctx, existing)
		if err != nil {
			return Membership{}, err
		}

		svc.notifier.Notify(ctx, core.Notice{
			RecipientID: c.OwnerID,
			Type:        "system",
			Title:       "Join Re-request",
			Message:     fmt.Sprintf("%s has re-requested to join %q.", svc.userName(ctx, studentID), c.Name),
			RelatedID:   m.ID,
		})
		return m, nil
	} else if err != ErrMemberNotFound {
		return Membership{}, err
	}

	m, err := svc.members.CreateMembership(ctx, Membership{
		ClassroomID:    classroomID,
		StudentID:      studentID,
		Status:         StatusPending,
		RequestedAt:    now,
		RequestMessage: message,
	})
	if err != nil {
		return Membership{}, err
	}

	svc.notifier.Notify(ctx,
		core.Notice{
			RecipientID: c.OwnerID,
			Type:        "system",
			Title:       "New Join Request",
			Message:     fmt.Sprintf("%s has requested to join %q.", svc.userName(ctx, studentID), c.Name),
			RelatedID:   m.ID,
		},
		core.Notice{
			RecipientID: studentID,
			Type:        "system",
			Title:       "Request Sent",
			Message:     fmt.Sprintf("Your request to join %q has been sent successfully.", c.Name),
			RelatedID:   c.ID,
		},
	)
	return m, nil
}

// JoinByCode admits a student directly: possession of the class code is
// treated as implicit authorization, so an existing pending or rejected
// membership is upgraded straight to approved without owner re-approval.
func (svc *Service) JoinByCode(ctx context.Context, code, studentID, message string) (Membership, Classroom, error) {
	c, err := svc.repo.GetClassroomByCode(ctx, code)
	if err != nil {
		if err == ErrNotFound {
			return Membership{}, Classroom{}, ErrCodeNotFound
		}
		return Membership{}, Classroom{}, err
	}
	if c.Settings.IsArchived {
		return Membership{}, Classroom{}, ErrArchived
	}
	if c.IsOwnedBy(studentID) {
		return Membership{}, Classroom{}, ErrOwnClassroom
	}

	now := time.Now().UTC()

	existing, err := svc.members.GetMembership(ctx, c.ID, studentID)
	if err == nil {
		if existing.Status == StatusApproved {
			return Membership{}, Classroom{}, ErrAlreadyMember
		}

		existing.Status = StatusApproved
		existing.RespondedAt = now
		existing.RespondedBy = c.OwnerID
		existing.RejectionReason = ""
		m, err := svc.members.UpdateMembership(ctx, existing)
		if err != nil {
			return Membership{}, Classroom{}, err
		}
		if err := svc.repo.IncrementMemberCount(ctx, c.ID, 1); err != nil {
			return Membership{}, Classroom{}, err
		}
		c.MemberCount++
		return m, c, nil
	} else if err != ErrMemberNotFound {
		return Membership{}, Classroom{}, err
	}

	// capacity check and insert are two discrete steps; concurrent joins near
	// the limit can transiently over-admit (documented invariant gap).
	approved, err := svc.members.CountMemberships(ctx, c.ID, StatusApproved)
	if err != nil {
		return Membership{}, Classroom{}, err
	}
	if approved >= c.Settings.MaxStudents {
		return Membership{}, Classroom{}, ErrClassroomFull
	}

	if message == "" {
		message = "Joined via Class Code"
	}
	m, err := svc.members.CreateMembership(ctx, Membership{
		ClassroomID:    c.ID,
		StudentID:      studentID,
		Status:         StatusApproved,
		RequestedAt:    now,
		RespondedAt:    now,
		RespondedBy:    c.OwnerID,
		RequestMessage: message,
	})
	if err != nil {
		return Membership{}, Classroom{}, err
	}
	if err := svc.repo.IncrementMemberCount(ctx, c.ID, 1); err != nil {
		return Membership{}, Classroom{}, err
	}
	c.MemberCount++

	svc.notifier.Notify(ctx, core.Notice{
		RecipientID: c.OwnerID,
		Type:        "system",
		Title:       "New Student Joined",
		Message:     fmt.Sprintf("%s joined %q via class code.", svc.userName(ctx, studentID), c.Name),
		RelatedID:   c.ID,
	})
	return m, c, nil
}

// Respond settles one pending join request; owner only.
func (svc *Service) Respond(ctx context.Context, classroomID, requestID, ownerID, action, reason string) (Membership, error) {
	access, err := svc.RequireOwner(ctx, classroomID, ownerID)
	if err != nil {
		return Membership{}, err
	}
	c := access.Classroom

	m, err := svc.members.GetMembershipByID(ctx, classroomID, requestID)
	if err != nil {
		return Membership{}, err
	}
	if m.Status != StatusPending {
		return Membership{}, core.NewConflictError(fmt.Sprintf("request is already %s", m.Status))
	}

	m.RespondedAt = time.Now().UTC()
	m.RespondedBy = ownerID
	if action == ActionApprove {
		m.Status = StatusApproved
	} else {
		m.Status = StatusRejected
		m.RejectionReason = reason
	}

	m, err = svc.members.UpdateMembership(ctx, m)
	if err != nil {
		return Membership{}, err
	}

	if m.Status == StatusApproved {
		if err := svc.repo.IncrementMemberCount(ctx, classroomID, 1); err != nil {
			return Membership{}, err
		}
		svc.notifier.Notify(ctx, core.Notice{
			RecipientID: m.StudentID,
			Type:        "request_approved",
			Title:       "Join Request Approved",
			Message:     fmt.Sprintf("Your request to join %q has been accepted by %s.", c.Name, svc.userName(ctx, ownerID)),
			RelatedID:   classroomID,
		})
	}
	return m, nil
}

// RespondBulk settles the subset of requestIds currently pending; ids in any
// other state are silently skipped and only the transitioned count is
// reported.
func (svc *Service) RespondBulk(ctx context.Context, classroomID, ownerID string, requestIDs []string, action string) (int, error) {
	access, err := svc.RequireOwner(ctx, classroomID, ownerID)
	if err != nil {
		return 0, err
	}
	c := access.Classroom

	newStatus := StatusRejected
	if action == ActionApprove {
		newStatus = StatusApproved
	}

	// fetch the pending subset first so newly-approved students can be notified
	var pending []Membership
	if action == ActionApprove {
		pending, err = svc.members.QueryMembershipsByIDs(ctx, classroomID, requestIDs, StatusPending)
		if err != nil {
			return 0, err
		}
	}

	modified, err := svc.members.BulkSetStatus(ctx, classroomID, requestIDs, StatusPending, newStatus, ownerID, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	if action == ActionApprove && modified > 0 {
		if err := svc.repo.IncrementMemberCount(ctx, classroomID, modified); err != nil {
			return 0, err
		}

		notices := make([]core.Notice, 0, len(pending))
		ownerName := svc.userName(ctx, ownerID)
		for _, m := range pending {
			notices = append(notices, core.Notice{
				RecipientID: m.StudentID,
				Type:        "request_approved",
				Title:       "Join Request Approved",
				Message:     fmt.Sprintf("Your request to join %q has been accepted by %s.", c.Name, ownerName),
				RelatedID:   classroomID,
			})
		}
		svc.notifier.Notify(ctx, notices...)
	}
	return modified, nil
}

// ListRequests returns the classroom's join requests, optionally filtered by
// status; owner only.
func (svc *Service) ListRequests(ctx context.Context, classroomID, ownerID, status string) ([]Membership, error) {
	if _, err := svc.RequireOwner(ctx, classroomID, ownerID); err != nil {
		return nil, err
	}
	if status != "" {
		return svc.members.QueryMembershipsByClassroom(ctx, classroomID, status)
	}
	return svc.members.QueryMembershipsByClassroom(ctx, classroomID)
}

// ListMembers returns the approved roster; owner only.
func (svc *Service) ListMembers(ctx context.Context, classroomID, ownerID string) ([]Membership, error) {
	if _, err := svc.RequireOwner(ctx, classroomID, ownerID); err != nil {
		return nil, err
	}
	return svc.members.QueryMembershipsByClassroom(ctx, classroomID, StatusApproved)
}

// ListStudents returns the approved roster for any approved member (students
// may see their classmates).
func (svc *Service) ListStudents(ctx context.Context, classroomID, userID string) ([]Membership, error) {
	if _, err := svc.RequireMember(ctx, classroomID, userID); err != nil {
		return nil, err
	}
	return svc.members.QueryMembershipsByClassroom(ctx, classroomID, StatusApproved)
}

// RemoveMember deletes the membership row regardless of status; the cached
// member count is decremented only when the removed row was approved.
func (svc *Service) RemoveMember(ctx context.Context, classroomID, ownerID, studentID string) error {
	if _, err := svc.RequireOwner(ctx, classroomID, ownerID); err != nil {
		return err
	}

	removed, err := svc.members.DeleteMembership(ctx, classroomID, studentID)
	if err != nil {
		return err
	}
	if removed.Status == StatusApproved {
		return svc.repo.IncrementMemberCount(ctx, classroomID, -1)
	}
	return nil
}

// NotifyMembers broadcasts a notice to every approved member; owner only.
func (svc *Service) NotifyMembers(ctx context.Context, classroomID, ownerID, typ, title, message, link string) (int, error) {
	if _, err := svc.RequireOwner(ctx, classroomID, ownerID); err != nil {
		return 0, err
	}

	members, err := svc.members.QueryMembershipsByClassroom(ctx, classroomID, StatusApproved)
	if err != nil {
		return 0, err
	}
	if typ == "" {
		typ = "system"
	}

	notices := make([]core.Notice, 0, len(members))
	for _, m := range members {
		notices = append(notices, core.Notice{
			RecipientID: m.StudentID,
			Type:        typ,
			Title:       title,
			Message:     message,
			Link:        link,
			RelatedID:   classroomID,
		})
	}
	svc.notifier.Notify(ctx, notices...)
	return len(notices), nil
}

func (svc *Service) userName(ctx context.Context, id string) string {
	if svc.users == nil {
		return "A user"
	}
	usr, err := svc.users.GetByID(ctx, id)
	if err != nil {
		return "A user"
	}
	return usr.Name
}

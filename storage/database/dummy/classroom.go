package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edulane/darasa/core/classroom"
)

type classroomRepository struct {
	db *classroomTable
}

var _ classroom.Repository = (*classroomRepository)(nil) // interface compliance check

func NewClassroomRepository(db *DB) classroom.Repository {
	return &classroomRepository{db: db.classroom}
}

func (repo *classroomRepository) query() []classroom.Classroom {
	classrooms := make([]classroom.Classroom, 0, len(repo.db.table))
	for _, c := range repo.db.table {
		classrooms = append(classrooms, *c)
	}
	return classrooms
}

func (repo *classroomRepository) CreateClassroom(_ context.Context, c classroom.Classroom) (classroom.Classroom, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.ClassCode == c.ClassCode {
			return classroom.Classroom{}, classroom.ErrCodeExists
		}
	}

	c.ID = uuid.New().String()
	repo.db.table[c.ID] = &c
	return c, nil
}

func (repo *classroomRepository) GetClassroom(_ context.Context, id string) (classroom.Classroom, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.table[id]; ok {
		return *c, nil
	}
	return classroom.Classroom{}, classroom.ErrNotFound
}

func (repo *classroomRepository) GetClassroomByCode(_ context.Context, code string) (classroom.Classroom, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, c := range repo.db.table {
		if c.ClassCode == code {
			return *c, nil
		}
	}
	return classroom.Classroom{}, classroom.ErrNotFound
}

func (repo *classroomRepository) GetClassroomsByID(_ context.Context, ids []string) ([]classroom.Classroom, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	classrooms := make([]classroom.Classroom, 0, len(ids))
	for _, id := range ids {
		if c, ok := repo.db.table[id]; ok {
			classrooms = append(classrooms, *c)
		}
	}
	return classrooms, nil
}

func (repo *classroomRepository) QueryClassroomsByOwner(_ context.Context, ownerID string) ([]classroom.Classroom, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	classrooms := make([]classroom.Classroom, 0)
	for _, c := range repo.query() {
		if c.OwnerID == ownerID {
			classrooms = append(classrooms, c)
		}
	}
	sortNewestFirst(classrooms)
	return classrooms, nil
}

func (repo *classroomRepository) FilterOpenClassrooms(_ context.Context, filter classroom.DiscoverFilter, limit int) ([]classroom.Classroom, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	classrooms := make([]classroom.Classroom, 0)
	for _, c := range repo.query() {
		if c.Settings.IsArchived || !c.Settings.AllowJoinRequests {
			continue
		}
		if filter.Subject != "" && c.Subject != filter.Subject {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(filter.Search)) {
			continue
		}
		classrooms = append(classrooms, c)
	}
	sortNewestFirst(classrooms)
	if len(classrooms) > limit {
		classrooms = classrooms[:limit]
	}
	return classrooms, nil
}

func (repo *classroomRepository) UpdateClassroom(_ context.Context, c classroom.Classroom) (classroom.Classroom, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	existing, ok := repo.db.table[c.ID]
	if !ok {
		return classroom.Classroom{}, classroom.ErrNotFound
	}
	// classCode, subject and memberCount are immutable through this path
	c.ClassCode = existing.ClassCode
	c.Subject = existing.Subject
	c.SubjectSlug = existing.SubjectSlug
	c.MemberCount = existing.MemberCount
	repo.db.table[c.ID] = &c
	return c, nil
}

func (repo *classroomRepository) DeleteClassroom(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return classroom.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *classroomRepository) IncrementMemberCount(_ context.Context, id string, delta int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	c, ok := repo.db.table[id]
	if !ok {
		return classroom.ErrNotFound
	}
	c.MemberCount += delta
	return nil
}

func sortNewestFirst(classrooms []classroom.Classroom) {
	sort.Slice(classrooms, func(i, j int) bool {
		if classrooms[i].CreatedAt.Equal(classrooms[j].CreatedAt) {
			return classrooms[i].ID < classrooms[j].ID
		}
		return classrooms[i].CreatedAt.After(classrooms[j].CreatedAt)
	})
}

type membershipRepository struct {
	db *membershipTable
}

var _ classroom.MembershipRepository = (*membershipRepository)(nil) // interface compliance check

func NewMembershipRepository(db *DB) classroom.MembershipRepository {
	return &membershipRepository{db: db.membership}
}

func (repo *membershipRepository) query() []classroom.Membership {
	memberships := make([]classroom.Membership, 0, len(repo.db.table))
	for _, m := range repo.db.table {
		memberships = append(memberships, *m)
	}
	sort.Slice(memberships, func(i, j int) bool {
		if memberships[i].RequestedAt.Equal(memberships[j].RequestedAt) {
			return memberships[i].ID < memberships[j].ID
		}
		return memberships[i].RequestedAt.After(memberships[j].RequestedAt)
	})
	return memberships
}

func matchesStatus(m classroom.Membership, statuses []string) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if m.Status == s {
			return true
		}
	}
	return false
}

func (repo *membershipRepository) CreateMembership(_ context.Context, m classroom.Membership) (classroom.Membership, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.ClassroomID == m.ClassroomID && existing.StudentID == m.StudentID {
			return classroom.Membership{}, classroom.ErrRequestPending
		}
	}

	m.ID = uuid.New().String()
	repo.db.table[m.ID] = &m
	return m, nil
}

func (repo *membershipRepository) GetMembership(_ context.Context, classroomID, studentID string) (classroom.Membership, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, m := range repo.db.table {
		if m.ClassroomID == classroomID && m.StudentID == studentID {
			return *m, nil
		}
	}
	return classroom.Membership{}, classroom.ErrMemberNotFound
}

func (repo *membershipRepository) GetMembershipByID(_ context.Context, classroomID, id string) (classroom.Membership, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if m, ok := repo.db.table[id]; ok && m.ClassroomID == classroomID {
		return *m, nil
	}
	return classroom.Membership{}, classroom.ErrRequestNotFound
}

func (repo *membershipRepository) QueryMembershipsByClassroom(_ context.Context, classroomID string, statuses ...string) ([]classroom.Membership, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	memberships := make([]classroom.Membership, 0)
	for _, m := range repo.query() {
		if m.ClassroomID == classroomID && matchesStatus(m, statuses) {
			memberships = append(memberships, m)
		}
	}
	return memberships, nil
}

func (repo *membershipRepository) QueryMembershipsByStudent(_ context.Context, studentID string, statuses ...string) ([]classroom.Membership, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	memberships := make([]classroom.Membership, 0)
	for _, m := range repo.query() {
		if m.StudentID == studentID && matchesStatus(m, statuses) {
			memberships = append(memberships, m)
		}
	}
	return memberships, nil
}

func (repo *membershipRepository) QueryMembershipsByIDs(_ context.Context, classroomID string, ids []string, status string) ([]classroom.Membership, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	idSet := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}

	memberships := make([]classroom.Membership, 0)
	for _, m := range repo.query() {
		if m.ClassroomID != classroomID || m.Status != status {
			continue
		}
		if _, ok := idSet[m.ID]; ok {
			memberships = append(memberships, m)
		}
	}
	return memberships, nil
}

func (repo *membershipRepository) CountMemberships(_ context.Context, classroomID, status string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var count int
	for _, m := range repo.db.table {
		if m.ClassroomID == classroomID && m.Status == status {
			count++
		}
	}
	return count, nil
}

func (repo *membershipRepository) CountPendingByClassrooms(_ context.Context, classroomIDs []string) (map[string]int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	idSet := make(map[string]struct{}, len(classroomIDs))
	for _, id := range classroomIDs {
		idSet[id] = struct{}{}
	}

	counts := make(map[string]int, len(classroomIDs))
	for _, m := range repo.db.table {
		if m.Status != classroom.StatusPending {
			continue
		}
		if _, ok := idSet[m.ClassroomID]; ok {
			counts[m.ClassroomID]++
		}
	}
	return counts, nil
}

func (repo *membershipRepository) UpdateMembership(_ context.Context, m classroom.Membership) (classroom.Membership, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[m.ID]; !ok {
		return classroom.Membership{}, classroom.ErrRequestNotFound
	}
	repo.db.table[m.ID] = &m
	return m, nil
}

func (repo *membershipRepository) BulkSetStatus(_ context.Context, classroomID string, ids []string, fromStatus, toStatus, respondedBy string, respondedAt time.Time) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var modified int
	for _, id := range ids {
		m, ok := repo.db.table[id]
		if !ok || m.ClassroomID != classroomID || m.Status != fromStatus {
			continue
		}
		m.Status = toStatus
		m.RespondedAt = respondedAt
		m.RespondedBy = respondedBy
		modified++
	}
	return modified, nil
}

func (repo *membershipRepository) DeleteMembership(_ context.Context, classroomID, studentID string) (classroom.Membership, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for id, m := range repo.db.table {
		if m.ClassroomID == classroomID && m.StudentID == studentID {
			removed := *m
			delete(repo.db.table, id)
			return removed, nil
		}
	}
	return classroom.Membership{}, classroom.ErrMemberNotFound
}

func (repo *membershipRepository) DeleteMembershipsByClassroom(_ context.Context, classroomID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for id, m := range repo.db.table {
		if m.ClassroomID == classroomID {
			delete(repo.db.table, id)
		}
	}
	return nil
}

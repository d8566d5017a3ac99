package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/edulane/darasa/core/classroom"
)

type classroomRow struct {
	ID                string    `db:"id"`
	Name              string    `db:"name"`
	Description       string    `db:"description"`
	Subject           string    `db:"subject"`
	SubjectSlug       string    `db:"subject_slug"`
	ClassCode         string    `db:"class_code"`
	OwnerID           string    `db:"owner_id"`
	CoverImage        string    `db:"cover_image"`
	AllowJoinRequests bool      `db:"allow_join_requests"`
	MaxStudents       int       `db:"max_students"`
	IsArchived        bool      `db:"is_archived"`
	MemberCount       int       `db:"member_count"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (r classroomRow) unpack() classroom.Classroom {
	return classroom.Classroom{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Subject:     r.Subject,
		SubjectSlug: r.SubjectSlug,
		ClassCode:   r.ClassCode,
		OwnerID:     r.OwnerID,
		CoverImage:  r.CoverImage,
		Settings: classroom.Settings{
			AllowJoinRequests: r.AllowJoinRequests,
			MaxStudents:       r.MaxStudents,
			IsArchived:        r.IsArchived,
		},
		MemberCount: r.MemberCount,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func packClassroom(c classroom.Classroom) classroomRow {
	return classroomRow{
		ID:                c.ID,
		Name:              c.Name,
		Description:       c.Description,
		Subject:           c.Subject,
		SubjectSlug:       c.SubjectSlug,
		ClassCode:         c.ClassCode,
		OwnerID:           c.OwnerID,
		CoverImage:        c.CoverImage,
		AllowJoinRequests: c.Settings.AllowJoinRequests,
		MaxStudents:       c.Settings.MaxStudents,
		IsArchived:        c.Settings.IsArchived,
		MemberCount:       c.MemberCount,
		CreatedAt:         c.CreatedAt.UTC(),
		UpdatedAt:         c.UpdatedAt.UTC(),
	}
}

func unpackClassrooms(rows []classroomRow) []classroom.Classroom {
	classrooms := make([]classroom.Classroom, 0, len(rows))
	for _, row := range rows {
		classrooms = append(classrooms, row.unpack())
	}
	return classrooms
}

type classroomRepository struct {
	db *sqlx.DB
}

var _ classroom.Repository = (*classroomRepository)(nil) // interface compliance check

func NewClassroomRepository(db *sqlx.DB) *classroomRepository {
	return &classroomRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to classroom.ErrNotFound
func (repo classroomRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return classroom.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo classroomRepository) CreateClassroom(ctx context.Context, c classroom.Classroom) (classroom.Classroom, error) {
	c.ID = uuid.New().String()
	row := packClassroom(c)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO classroom (id, name, description, subject, subject_slug, class_code, owner_id, cover_image,
		                       allow_join_requests, max_students, is_archived, member_count, created_at, updated_at)
		VALUES (:id, :name, :description, :subject, :subject_slug, :class_code, :owner_id, :cover_image,
		        :allow_join_requests, :max_students, :is_archived, :member_count, :created_at, :updated_at)`,
		row)
	if err != nil {
		if isUniqueViolation(err) {
			return classroom.Classroom{}, classroom.ErrCodeExists
		}
		return classroom.Classroom{}, errors.Wrap(err, "inserting classroom")
	}
	return row.unpack(), nil
}

func (repo classroomRepository) GetClassroom(ctx context.Context, id string) (classroom.Classroom, error) {
	if _, err := uuid.Parse(id); err != nil {
		return classroom.Classroom{}, classroom.ErrNotFound
	}

	var row classroomRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM classroom WHERE id = $1`, id); err != nil {
		return classroom.Classroom{}, repo.trapNoRowsErr(err, "finding classroom by ID")
	}
	return row.unpack(), nil
}

func (repo classroomRepository) GetClassroomByCode(ctx context.Context, code string) (classroom.Classroom, error) {
	var row classroomRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM classroom WHERE class_code = $1`, code); err != nil {
		return classroom.Classroom{}, repo.trapNoRowsErr(err, "finding classroom by code")
	}
	return row.unpack(), nil
}

func (repo classroomRepository) GetClassroomsByID(ctx context.Context, ids []string) ([]classroom.Classroom, error) {
	var rows []classroomRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM classroom WHERE id = ANY($1)`, stringArray(ids))
	if err != nil {
		return nil, errors.Wrap(err, "querying classrooms by ID")
	}
	return unpackClassrooms(rows), nil
}

func (repo classroomRepository) QueryClassroomsByOwner(ctx context.Context, ownerID string) ([]classroom.Classroom, error) {
	var rows []classroomRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM classroom WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "querying classrooms by owner")
	}
	return unpackClassrooms(rows), nil
}

func (repo classroomRepository) FilterOpenClassrooms(ctx context.Context, filter classroom.DiscoverFilter, limit int) ([]classroom.Classroom, error) {
	query := `SELECT * FROM classroom WHERE is_archived = FALSE AND allow_join_requests = TRUE`
	args := make([]interface{}, 0, 3)

	if filter.Subject != "" {
		args = append(args, filter.Subject)
		query += fmt.Sprintf(" AND subject = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	var rows []classroomRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying open classrooms")
	}
	return unpackClassrooms(rows), nil
}

func (repo classroomRepository) UpdateClassroom(ctx context.Context, c classroom.Classroom) (classroom.Classroom, error) {
	row := packClassroom(c)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE classroom
		SET name = :name, description = :description, cover_image = :cover_image,
		    allow_join_requests = :allow_join_requests, max_students = :max_students,
		    is_archived = :is_archived, updated_at = :updated_at
		WHERE id = :id`,
		row)
	if err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "updating classroom")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return classroom.Classroom{}, classroom.ErrNotFound
	}
	return repo.GetClassroom(ctx, c.ID)
}

func (repo classroomRepository) DeleteClassroom(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM classroom WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting classroom")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return classroom.ErrNotFound
	}
	return nil
}

func (repo classroomRepository) IncrementMemberCount(ctx context.Context, id string, delta int) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE classroom SET member_count = member_count + $1 WHERE id = $2`, delta, id)
	if err != nil {
		return errors.Wrap(err, "incrementing member count")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return classroom.ErrNotFound
	}
	return nil
}

type membershipRow struct {
	ID              string         `db:"id"`
	ClassroomID     string         `db:"classroom_id"`
	StudentID       string         `db:"student_id"`
	Status          string         `db:"status"`
	RequestedAt     time.Time      `db:"requested_at"`
	RespondedAt     sql.NullTime   `db:"responded_at"`
	RespondedBy     sql.NullString `db:"responded_by"`
	RequestMessage  string         `db:"request_message"`
	RejectionReason string         `db:"rejection_reason"`
}

func (r membershipRow) unpack() classroom.Membership {
	return classroom.Membership{
		ID:              r.ID,
		ClassroomID:     r.ClassroomID,
		StudentID:       r.StudentID,
		Status:          r.Status,
		RequestedAt:     r.RequestedAt,
		RespondedAt:     r.RespondedAt.Time,
		RespondedBy:     r.RespondedBy.String,
		RequestMessage:  r.RequestMessage,
		RejectionReason: r.RejectionReason,
	}
}

func packMembership(m classroom.Membership) membershipRow {
	return membershipRow{
		ID:              m.ID,
		ClassroomID:     m.ClassroomID,
		StudentID:       m.StudentID,
		Status:          m.Status,
		RequestedAt:     m.RequestedAt.UTC(),
		RespondedAt:     sql.NullTime{Time: m.RespondedAt.UTC(), Valid: !m.RespondedAt.IsZero()},
		RespondedBy:     sql.NullString{String: m.RespondedBy, Valid: m.RespondedBy != ""},
		RequestMessage:  m.RequestMessage,
		RejectionReason: m.RejectionReason,
	}
}

func unpackMemberships(rows []membershipRow) []classroom.Membership {
	memberships := make([]classroom.Membership, 0, len(rows))
	for _, row := range rows {
		memberships = append(memberships, row.unpack())
	}
	return memberships
}

type membershipRepository struct {
	db *sqlx.DB
}

var _ classroom.MembershipRepository = (*membershipRepository)(nil) // interface compliance check

func NewMembershipRepository(db *sqlx.DB) *membershipRepository {
	return &membershipRepository{db: db}
}

func (repo membershipRepository) CreateMembership(ctx context.Context, m classroom.Membership) (classroom.Membership, error) {
	m.ID = uuid.New().String()
	row := packMembership(m)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO classroom_membership (id, classroom_id, student_id, status, requested_at, responded_at,
		                                  responded_by, request_message, rejection_reason)
		VALUES (:id, :classroom_id, :student_id, :status, :requested_at, :responded_at,
		        :responded_by, :request_message, :rejection_reason)`,
		row)
	if err != nil {
		if isUniqueViolation(err) {
			return classroom.Membership{}, classroom.ErrRequestPending
		}
		return classroom.Membership{}, errors.Wrap(err, "inserting membership")
	}
	return row.unpack(), nil
}

func (repo membershipRepository) GetMembership(ctx context.Context, classroomID, studentID string) (classroom.Membership, error) {
	var row membershipRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM classroom_membership WHERE classroom_id = $1 AND student_id = $2`, classroomID, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return classroom.Membership{}, classroom.ErrMemberNotFound
		}
		return classroom.Membership{}, errors.Wrap(err, "finding membership")
	}
	return row.unpack(), nil
}

func (repo membershipRepository) GetMembershipByID(ctx context.Context, classroomID, id string) (classroom.Membership, error) {
	if _, err := uuid.Parse(id); err != nil {
		return classroom.Membership{}, classroom.ErrRequestNotFound
	}

	var row membershipRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM classroom_membership WHERE classroom_id = $1 AND id = $2`, classroomID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return classroom.Membership{}, classroom.ErrRequestNotFound
		}
		return classroom.Membership{}, errors.Wrap(err, "finding membership by ID")
	}
	return row.unpack(), nil
}

func (repo membershipRepository) QueryMembershipsByClassroom(ctx context.Context, classroomID string, statuses ...string) ([]classroom.Membership, error) {
	query := `SELECT * FROM classroom_membership WHERE classroom_id = $1 ORDER BY requested_at DESC`
	args := []interface{}{classroomID}
	if len(statuses) > 0 {
		query = `SELECT * FROM classroom_membership WHERE classroom_id = $1 AND status = ANY($2) ORDER BY requested_at DESC`
		args = append(args, stringArray(statuses))
	}

	var rows []membershipRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying memberships by classroom")
	}
	return unpackMemberships(rows), nil
}

func (repo membershipRepository) QueryMembershipsByStudent(ctx context.Context, studentID string, statuses ...string) ([]classroom.Membership, error) {
	query := `SELECT * FROM classroom_membership WHERE student_id = $1 ORDER BY requested_at DESC`
	args := []interface{}{studentID}
	if len(statuses) > 0 {
		query = `SELECT * FROM classroom_membership WHERE student_id = $1 AND status = ANY($2) ORDER BY requested_at DESC`
		args = append(args, stringArray(statuses))
	}

	var rows []membershipRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying memberships by student")
	}
	return unpackMemberships(rows), nil
}

func (repo membershipRepository) QueryMembershipsByIDs(ctx context.Context, classroomID string, ids []string, status string) ([]classroom.Membership, error) {
	var rows []membershipRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT * FROM classroom_membership
		WHERE classroom_id = $1 AND status = $2 AND id = ANY($3)
		ORDER BY requested_at DESC`,
		classroomID, status, stringArray(ids))
	if err != nil {
		return nil, errors.Wrap(err, "querying memberships by IDs")
	}
	return unpackMemberships(rows), nil
}

func (repo membershipRepository) CountMemberships(ctx context.Context, classroomID, status string) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM classroom_membership WHERE classroom_id = $1 AND status = $2`, classroomID, status)
	if err != nil {
		return 0, errors.Wrap(err, "counting memberships")
	}
	return count, nil
}

func (repo membershipRepository) CountPendingByClassrooms(ctx context.Context, classroomIDs []string) (map[string]int, error) {
	rows, err := repo.db.QueryxContext(ctx, `
		SELECT classroom_id, COUNT(*) FROM classroom_membership
		WHERE status = $1 AND classroom_id = ANY($2)
		GROUP BY classroom_id`,
		classroom.StatusPending, stringArray(classroomIDs))
	if err != nil {
		return nil, errors.Wrap(err, "counting pending memberships")
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int, len(classroomIDs))
	for rows.Next() {
		var classroomID string
		var count int
		if err = rows.Scan(&classroomID, &count); err != nil {
			return nil, errors.Wrap(err, "counting pending memberships")
		}
		counts[classroomID] = count
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "counting pending memberships")
	}
	return counts, nil
}

func (repo membershipRepository) UpdateMembership(ctx context.Context, m classroom.Membership) (classroom.Membership, error) {
	row := packMembership(m)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE classroom_membership
		SET status = :status, requested_at = :requested_at, responded_at = :responded_at,
		    responded_by = :responded_by, request_message = :request_message, rejection_reason = :rejection_reason
		WHERE id = :id`,
		row)
	if err != nil {
		return classroom.Membership{}, errors.Wrap(err, "updating membership")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return classroom.Membership{}, classroom.ErrRequestNotFound
	}
	return row.unpack(), nil
}

func (repo membershipRepository) BulkSetStatus(ctx context.Context, classroomID string, ids []string, fromStatus, toStatus, respondedBy string, respondedAt time.Time) (int, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE classroom_membership
		SET status = $1, responded_at = $2, responded_by = $3
		WHERE classroom_id = $4 AND status = $5 AND id = ANY($6)`,
		toStatus, respondedAt.UTC(), respondedBy, classroomID, fromStatus, stringArray(ids))
	if err != nil {
		return 0, errors.Wrap(err, "bulk updating memberships")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "bulk updating memberships")
	}
	return int(n), nil
}

func (repo membershipRepository) DeleteMembership(ctx context.Context, classroomID, studentID string) (classroom.Membership, error) {
	var row membershipRow
	err := repo.db.GetContext(ctx, &row, `
		DELETE FROM classroom_membership
		WHERE classroom_id = $1 AND student_id = $2
		RETURNING *`,
		classroomID, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return classroom.Membership{}, classroom.ErrMemberNotFound
		}
		return classroom.Membership{}, errors.Wrap(err, "deleting membership")
	}
	return row.unpack(), nil
}

func (repo membershipRepository) DeleteMembershipsByClassroom(ctx context.Context, classroomID string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM classroom_membership WHERE classroom_id = $1`, classroomID); err != nil {
		return errors.Wrap(err, "deleting classroom memberships")
	}
	return nil
}

package sqlxrepos

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/edulane/darasa/core/activity"
)

type activityRow struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	ClassroomID string    `db:"classroom_id"`
	Action      string    `db:"action"`
	TargetType  string    `db:"target_type"`
	TargetID    string    `db:"target_id"`
	TargetTitle string    `db:"target_title"`
	Metadata    []byte    `db:"metadata"`
	Timestamp   time.Time `db:"timestamp"`
}

func (r activityRow) unpack() (activity.Entry, error) {
	e := activity.Entry{
		ID:          r.ID,
		UserID:      r.UserID,
		ClassroomID: r.ClassroomID,
		Action:      r.Action,
		TargetType:  r.TargetType,
		TargetID:    r.TargetID,
		TargetTitle: r.TargetTitle,
		Timestamp:   r.Timestamp,
	}
	if len(r.Metadata) > 0 {
		if err := json.Unmarshal(r.Metadata, &e.Metadata); err != nil {
			return activity.Entry{}, errors.Wrap(err, "decoding entry metadata")
		}
	}
	return e, nil
}

func packEntry(e activity.Entry) (activityRow, error) {
	row := activityRow{
		ID:          e.ID,
		UserID:      e.UserID,
		ClassroomID: e.ClassroomID,
		Action:      e.Action,
		TargetType:  e.TargetType,
		TargetID:    e.TargetID,
		TargetTitle: e.TargetTitle,
		Timestamp:   e.Timestamp.UTC(),
	}
	if e.Metadata != nil {
		raw, err := json.Marshal(e.Metadata)
		if err != nil {
			return activityRow{}, errors.Wrap(err, "encoding entry metadata")
		}
		row.Metadata = raw
	}
	return row, nil
}

func unpackEntries(rows []activityRow) ([]activity.Entry, error) {
	entries := make([]activity.Entry, 0, len(rows))
	for _, row := range rows {
		e, err := row.unpack()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

type activityRepository struct {
	db *sqlx.DB
}

var _ activity.Repository = (*activityRepository)(nil) // interface compliance check

func NewActivityRepository(db *sqlx.DB) *activityRepository {
	return &activityRepository{db: db}
}

func (repo activityRepository) CreateEntry(ctx context.Context, e activity.Entry) (activity.Entry, error) {
	e.ID = uuid.New().String()
	row, err := packEntry(e)
	if err != nil {
		return activity.Entry{}, err
	}

	_, err = repo.db.NamedExecContext(ctx, `
		INSERT INTO activity_log (id, user_id, classroom_id, action, target_type, target_id, target_title, metadata, "timestamp")
		VALUES (:id, :user_id, :classroom_id, :action, :target_type, :target_id, :target_title, :metadata, :timestamp)`,
		row)
	if err != nil {
		return activity.Entry{}, errors.Wrap(err, "inserting activity entry")
	}
	return e, nil
}

func (repo activityRepository) QueryEntriesByClassroom(ctx context.Context, classroomID string, since time.Time) ([]activity.Entry, error) {
	query := `SELECT * FROM activity_log WHERE classroom_id = $1 ORDER BY "timestamp" DESC`
	args := []interface{}{classroomID}
	if !since.IsZero() {
		query = `SELECT * FROM activity_log WHERE classroom_id = $1 AND "timestamp" >= $2 ORDER BY "timestamp" DESC`
		args = append(args, since.UTC())
	}

	var rows []activityRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying activity entries")
	}
	return unpackEntries(rows)
}

func (repo activityRepository) QueryEntriesPage(ctx context.Context, classroomID string, filter activity.LogFilter) ([]activity.Entry, int, error) {
	where := `WHERE classroom_id = $1`
	args := []interface{}{classroomID}
	if filter.Action != "" {
		args = append(args, filter.Action)
		where += fmt.Sprintf(" AND action = $%d", len(args))
	}

	var total int
	if err := repo.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM activity_log `+where, args...); err != nil {
		return nil, 0, errors.Wrap(err, "counting activity entries")
	}

	args = append(args, filter.Limit, filter.Skip)
	query := fmt.Sprintf(
		`SELECT * FROM activity_log %s ORDER BY "timestamp" DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))

	var rows []activityRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, errors.Wrap(err, "querying activity page")
	}
	entries, err := unpackEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (repo activityRepository) QueryEntriesByTarget(ctx context.Context, classroomID, targetID string, actions []string) ([]activity.Entry, error) {
	query := `SELECT * FROM activity_log WHERE classroom_id = $1 AND target_id = $2 ORDER BY "timestamp" DESC`
	args := []interface{}{classroomID, targetID}
	if len(actions) > 0 {
		query = `SELECT * FROM activity_log WHERE classroom_id = $1 AND target_id = $2 AND action = ANY($3) ORDER BY "timestamp" DESC`
		args = append(args, stringArray(actions))
	}

	var rows []activityRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying activity by target")
	}
	return unpackEntries(rows)
}

func (repo activityRepository) DeleteEntriesByClassroom(ctx context.Context, classroomID string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM activity_log WHERE classroom_id = $1`, classroomID); err != nil {
		return errors.Wrap(err, "deleting classroom activity")
	}
	return nil
}

func (repo activityRepository) DeleteEntriesOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM activity_log WHERE "timestamp" < $1`, cutoff.UTC())
	if err != nil {
		return 0, errors.Wrap(err, "purging expired activity")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "purging expired activity")
	}
	return int(n), nil
}

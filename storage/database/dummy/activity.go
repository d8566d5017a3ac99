package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/edulane/darasa/core/activity"
)

type activityRepository struct {
	db *activityTable
}

var _ activity.Repository = (*activityRepository)(nil) // interface compliance check

func NewActivityRepository(db *DB) activity.Repository {
	return &activityRepository{db: db.activity}
}

// query returns all entries, newest first.
func (repo *activityRepository) query() []activity.Entry {
	entries := make([]activity.Entry, 0, len(repo.db.table))
	for _, e := range repo.db.table {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries
}

func (repo *activityRepository) CreateEntry(_ context.Context, e activity.Entry) (activity.Entry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	e.ID = uuid.New().String()
	repo.db.table[e.ID] = &e
	return e, nil
}

func (repo *activityRepository) QueryEntriesByClassroom(_ context.Context, classroomID string, since time.Time) ([]activity.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	entries := make([]activity.Entry, 0)
	for _, e := range repo.query() {
		if e.ClassroomID != classroomID {
			continue
		}
		if !since.IsZero() && e.Timestamp.Before(since) {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (repo *activityRepository) QueryEntriesPage(_ context.Context, classroomID string, filter activity.LogFilter) ([]activity.Entry, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	matches := make([]activity.Entry, 0)
	for _, e := range repo.query() {
		if e.ClassroomID != classroomID {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		matches = append(matches, e)
	}

	total := len(matches)
	if filter.Skip >= total {
		return []activity.Entry{}, total, nil
	}
	matches = matches[filter.Skip:]
	if len(matches) > filter.Limit {
		matches = matches[:filter.Limit]
	}
	return matches, total, nil
}

func (repo *activityRepository) QueryEntriesByTarget(_ context.Context, classroomID, targetID string, actions []string) ([]activity.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	actionSet := make(map[string]struct{}, len(actions))
	for _, a := range actions {
		actionSet[a] = struct{}{}
	}

	entries := make([]activity.Entry, 0)
	for _, e := range repo.query() {
		if e.ClassroomID != classroomID || e.TargetID != targetID {
			continue
		}
		if len(actionSet) > 0 {
			if _, ok := actionSet[e.Action]; !ok {
				continue
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (repo *activityRepository) DeleteEntriesByClassroom(_ context.Context, classroomID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for id, e := range repo.db.table {
		if e.ClassroomID == classroomID {
			delete(repo.db.table, id)
		}
	}
	return nil
}

func (repo *activityRepository) DeleteEntriesOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var deleted int
	for id, e := range repo.db.table {
		if e.Timestamp.Before(cutoff) {
			delete(repo.db.table, id)
			deleted++
		}
	}
	return deleted, nil
}

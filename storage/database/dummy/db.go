package dummydb

import (
	"sync"

	"github.com/edulane/darasa/core/activity"
	"github.com/edulane/darasa/core/classroom"
	"github.com/edulane/darasa/core/notification"
	"github.com/edulane/darasa/core/user"
)

// DB is an in-memory database for tests and local development. Tables are
// plain maps guarded by one RWMutex per table.
type (
	DB struct {
		user         *userTable
		classroom    *classroomTable
		membership   *membershipTable
		activity     *activityTable
		notification *notificationTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	classroomTable struct {
		sync.RWMutex
		table map[string]*classroom.Classroom
	}

	membershipTable struct {
		sync.RWMutex
		table map[string]*classroom.Membership
	}

	activityTable struct {
		sync.RWMutex
		table map[string]*activity.Entry
	}

	notificationTable struct {
		sync.RWMutex
		table map[string]*notification.Notification
	}
)

func Open() *DB {
	return &DB{
		user:         &userTable{table: make(map[string]*user.User)},
		classroom:    &classroomTable{table: make(map[string]*classroom.Classroom)},
		membership:   &membershipTable{table: make(map[string]*classroom.Membership)},
		activity:     &activityTable{table: make(map[string]*activity.Entry)},
		notification: &notificationTable{table: make(map[string]*notification.Notification)},
	}
}

package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/edulane/darasa/core/notification"
)

type notificationRepository struct {
	db *notificationTable
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db.notification}
}

func (repo *notificationRepository) CreateNotifications(_ context.Context, notifs []notification.Notification) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, n := range notifs {
		n.ID = uuid.New().String()
		if n.CreatedAt.IsZero() {
			n.CreatedAt = time.Now().UTC()
		}
		notif := n
		repo.db.table[notif.ID] = &notif
	}
	return nil
}

func (repo *notificationRepository) QueryNotificationsByRecipient(_ context.Context, recipientID string, unreadOnly bool) ([]notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	notifs := make([]notification.Notification, 0)
	for _, n := range repo.db.table {
		if n.RecipientID != recipientID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		notifs = append(notifs, *n)
	}
	sort.Slice(notifs, func(i, j int) bool {
		if notifs[i].CreatedAt.Equal(notifs[j].CreatedAt) {
			return notifs[i].ID < notifs[j].ID
		}
		return notifs[i].CreatedAt.After(notifs[j].CreatedAt)
	})
	return notifs, nil
}

func (repo *notificationRepository) MarkNotificationRead(_ context.Context, recipientID, id string) (notification.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	n, ok := repo.db.table[id]
	if !ok || n.RecipientID != recipientID {
		return notification.Notification{}, notification.ErrNotFound
	}
	n.Read = true
	return *n, nil
}

func (repo *notificationRepository) MarkAllNotificationsRead(_ context.Context, recipientID string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var marked int
	for _, n := range repo.db.table {
		if n.RecipientID == recipientID && !n.Read {
			n.Read = true
			marked++
		}
	}
	return marked, nil
}

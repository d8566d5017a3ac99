package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/edulane/darasa/core/notification"
)

type notificationRow struct {
	ID          string    `db:"id"`
	RecipientID string    `db:"recipient_id"`
	Type        string    `db:"type"`
	Title       string    `db:"title"`
	Message     string    `db:"message"`
	Link        string    `db:"link"`
	RelatedID   string    `db:"related_id"`
	Read        bool      `db:"read"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r notificationRow) unpack() notification.Notification {
	return notification.Notification(r)
}

type notificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *sqlx.DB) *notificationRepository {
	return &notificationRepository{db: db}
}

func (repo notificationRepository) CreateNotifications(ctx context.Context, notifs []notification.Notification) error {
	if len(notifs) == 0 {
		return nil
	}

	rows := make([]notificationRow, 0, len(notifs))
	for _, n := range notifs {
		createdAt := n.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		rows = append(rows, notificationRow{
			ID:          uuid.New().String(),
			RecipientID: n.RecipientID,
			Type:        n.Type,
			Title:       n.Title,
			Message:     n.Message,
			Link:        n.Link,
			RelatedID:   n.RelatedID,
			Read:        n.Read,
			CreatedAt:   createdAt.UTC(),
		})
	}

	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO notification (id, recipient_id, type, title, message, link, related_id, read, created_at)
		VALUES (:id, :recipient_id, :type, :title, :message, :link, :related_id, :read, :created_at)`,
		rows)
	if err != nil {
		return errors.Wrap(err, "inserting notifications")
	}
	return nil
}

func (repo notificationRepository) QueryNotificationsByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]notification.Notification, error) {
	query := `SELECT * FROM notification WHERE recipient_id = $1 ORDER BY created_at DESC`
	if unreadOnly {
		query = `SELECT * FROM notification WHERE recipient_id = $1 AND read = FALSE ORDER BY created_at DESC`
	}

	var rows []notificationRow
	if err := repo.db.SelectContext(ctx, &rows, query, recipientID); err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}

	notifs := make([]notification.Notification, 0, len(rows))
	for _, row := range rows {
		notifs = append(notifs, row.unpack())
	}
	return notifs, nil
}

func (repo notificationRepository) MarkNotificationRead(ctx context.Context, recipientID, id string) (notification.Notification, error) {
	if _, err := uuid.Parse(id); err != nil {
		return notification.Notification{}, notification.ErrNotFound
	}

	var row notificationRow
	err := repo.db.GetContext(ctx, &row, `
		UPDATE notification SET read = TRUE
		WHERE recipient_id = $1 AND id = $2
		RETURNING *`,
		recipientID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return notification.Notification{}, notification.ErrNotFound
		}
		return notification.Notification{}, errors.Wrap(err, "marking notification read")
	}
	return row.unpack(), nil
}

func (repo notificationRepository) MarkAllNotificationsRead(ctx context.Context, recipientID string) (int, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE notification SET read = TRUE WHERE recipient_id = $1 AND read = FALSE`, recipientID)
	if err != nil {
		return 0, errors.Wrap(err, "marking notifications read")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "marking notifications read")
	}
	return int(n), nil
}

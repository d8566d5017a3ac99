package notification

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/edulane/darasa/core"
	"github.com/edulane/darasa/core/user"
)

var ErrNotFound = core.NewNotFoundError("notification not found")

type (
	Repository interface {
		CreateNotifications(ctx context.Context, notifs []Notification) error
		QueryNotificationsByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]Notification, error)
		MarkNotificationRead(ctx context.Context, recipientID, id string) (Notification, error)
		MarkAllNotificationsRead(ctx context.Context, recipientID string) (int, error)
	}

	// UserDirectory resolves recipients' email addresses.
	UserDirectory interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	// Service persists in-app notifications and mirrors them to email on a
	// best-effort basis. Delivery failures are logged, never propagated: a
	// failed notification must not abort the operation that triggered it.
	Service struct {
		repo  Repository
		users UserDirectory
		mail  core.EmailService
		log   core.Logger
	}
)

var _ core.Notifier = (*Service)(nil)

func NewService(repo Repository, users UserDirectory, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{repo: repo, users: users, mail: mailSvc, log: logger}
}

// Notify implements core.Notifier.
func (svc *Service) Notify(ctx context.Context, notices ...core.Notice) {
	if len(notices) == 0 {
		return
	}

	now := time.Now().UTC()
	notifs := make([]Notification, 0, len(notices))
	for _, n := range notices {
		notifs = append(notifs, Notification{
			RecipientID: n.RecipientID,
			Type:        n.Type,
			Title:       n.Title,
			Message:     n.Message,
			Link:        n.Link,
			RelatedID:   n.RelatedID,
			CreatedAt:   now,
		})
	}

	if err := svc.repo.CreateNotifications(ctx, notifs); err != nil {
		svc.log.Error(fmt.Sprintf("persisting %d notification(s): %v", len(notifs), err), err)
		return
	}
	svc.sendEmails(ctx, notices)
}

func (svc *Service) sendEmails(ctx context.Context, notices []core.Notice) {
	if svc.mail == nil {
		return
	}

	messages := make([]*core.EmailMessage, 0, len(notices))
	for _, n := range notices {
		usr, err := svc.users.GetByID(ctx, n.RecipientID)
		if err != nil {
			svc.log.Warn(fmt.Sprintf("resolving notification recipient %s: %v", n.RecipientID, err))
			continue
		}
		messages = append(messages, &core.EmailMessage{
			To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject: n.Title,
			BodyStr: n.Message,
		})
	}
	svc.mail.SendMessages(messages...)
}

func (svc *Service) List(ctx context.Context, recipientID string, unreadOnly bool) ([]Notification, error) {
	return svc.repo.QueryNotificationsByRecipient(ctx, recipientID, unreadOnly)
}

func (svc *Service) MarkRead(ctx context.Context, recipientID, id string) (Notification, error) {
	return svc.repo.MarkNotificationRead(ctx, recipientID, id)
}

func (svc *Service) MarkAllRead(ctx context.Context, recipientID string) (int, error) {
	return svc.repo.MarkAllNotificationsRead(ctx, recipientID)
}

// NopNotifier discards notices; used where notification wiring is optional.
type NopNotifier struct{}

var _ core.Notifier = (*NopNotifier)(nil)

func (NopNotifier) Notify(context.Context, ...core.Notice) {}

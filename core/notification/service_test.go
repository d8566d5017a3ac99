package notification_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulane/darasa/core"
	"github.com/edulane/darasa/core/notification"
	"github.com/edulane/darasa/core/user"
	emailsvc "github.com/edulane/darasa/services/email"
	dummydb "github.com/edulane/darasa/storage/database/dummy"
	testutil "github.com/edulane/darasa/tests"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type fixture struct {
	svc     *notification.Service
	repo    notification.Repository
	usrRepo user.Repository

	recipient user.User
}

func setup(t *testing.T) *fixture {
	emailsvc.ClearSentMessages()
	t.Cleanup(emailsvc.ClearSentMessages)

	db := dummydb.Open()
	repo := dummydb.NewNotificationRepository(db)
	usrRepo := dummydb.NewUserRepository(db)

	svc := notification.NewService(repo, user.NewService(usrRepo), emailsvc.NewConsoleServiceMock(), nopLogger{})

	return &fixture{
		svc:       svc,
		repo:      repo,
		usrRepo:   usrRepo,
		recipient: testutil.CreateUser(t, usrRepo, "Jabari Student", "jabari@test.cd", user.RoleStudent, "", true),
	}
}

func TestService_Notify(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	fix.svc.Notify(ctx, core.Notice{
		RecipientID: fix.recipient.ID,
		Type:        "system",
		Title:       "Welcome",
		Message:     "You have joined Math.",
		RelatedID:   "class-1",
	})

	notifs, err := fix.svc.List(ctx, fix.recipient.ID, false)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.NotEmpty(t, notifs[0].ID)
	assert.Equal(t, "Welcome", notifs[0].Title)
	assert.Equal(t, "class-1", notifs[0].RelatedID)
	assert.False(t, notifs[0].Read)
	assert.False(t, notifs[0].CreatedAt.IsZero())

	// mirrored to email
	require.Len(t, emailsvc.SentMessages, 1)
	assert.Equal(t, "Welcome", emailsvc.SentMessages[0].Subject)
	assert.Equal(t, "You have joined Math.", emailsvc.SentMessages[0].TextContent)
	require.Len(t, emailsvc.SentMessages[0].To, 1)
	assert.Equal(t, fix.recipient.Email, emailsvc.SentMessages[0].To[0].Address)
}

func TestService_Notify_unknownRecipientSkipsEmailOnly(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	fix.svc.Notify(ctx,
		core.Notice{RecipientID: fix.recipient.ID, Type: "system", Title: "One", Message: "m"},
		core.Notice{RecipientID: "ghost", Type: "system", Title: "Two", Message: "m"},
	)

	// both rows persist; only the resolvable recipient gets an email
	notifs, err := fix.svc.List(ctx, fix.recipient.ID, false)
	require.NoError(t, err)
	assert.Len(t, notifs, 1)

	ghostNotifs, err := fix.svc.List(ctx, "ghost", false)
	require.NoError(t, err)
	assert.Len(t, ghostNotifs, 1)

	require.Len(t, emailsvc.SentMessages, 1)
	assert.Equal(t, "One", emailsvc.SentMessages[0].Subject)
}

func TestService_MarkRead(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	fix.svc.Notify(ctx,
		core.Notice{RecipientID: fix.recipient.ID, Type: "system", Title: "One", Message: "m"},
		core.Notice{RecipientID: fix.recipient.ID, Type: "system", Title: "Two", Message: "m"},
	)

	unread, err := fix.svc.List(ctx, fix.recipient.ID, true /* unreadOnly */)
	require.NoError(t, err)
	require.Len(t, unread, 2)

	marked, err := fix.svc.MarkRead(ctx, fix.recipient.ID, unread[0].ID)
	require.NoError(t, err)
	assert.True(t, marked.Read)

	unread, err = fix.svc.List(ctx, fix.recipient.ID, true)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	t.Run("someone else's notification", func(t *testing.T) {
		other := testutil.CreateUser(t, fix.usrRepo, "Other", "other@test.cd", user.RoleStudent, "", true)
		_, err := fix.svc.MarkRead(ctx, other.ID, unread[0].ID)
		assert.Equal(t, notification.ErrNotFound, err)
	})
}

func TestService_MarkAllRead(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	fix.svc.Notify(ctx,
		core.Notice{RecipientID: fix.recipient.ID, Type: "system", Title: "One", Message: "m"},
		core.Notice{RecipientID: fix.recipient.ID, Type: "system", Title: "Two", Message: "m"},
	)
	other := testutil.CreateUser(t, fix.usrRepo, "Other", "other@test.cd", user.RoleStudent, "", true)
	fix.svc.Notify(ctx, core.Notice{RecipientID: other.ID, Type: "system", Title: "Theirs", Message: "m"})

	marked, err := fix.svc.MarkAllRead(ctx, fix.recipient.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, marked)

	unread, err := fix.svc.List(ctx, fix.recipient.ID, true)
	require.NoError(t, err)
	assert.Empty(t, unread)

	// already-read rows are not counted again
	marked, err = fix.svc.MarkAllRead(ctx, fix.recipient.ID)
	require.NoError(t, err)
	assert.Zero(t, marked)

	// the other inbox is untouched
	otherUnread, err := fix.svc.List(ctx, other.ID, true)
	require.NoError(t, err)
	assert.Len(t, otherUnread, 1)
}

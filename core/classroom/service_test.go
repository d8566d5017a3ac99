package classroom_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulane/darasa/core"
	"github.com/edulane/darasa/core/classroom"
	"github.com/edulane/darasa/core/user"
	dummydb "github.com/edulane/darasa/storage/database/dummy"
	testutil "github.com/edulane/darasa/tests"
)

// noticeRecorder captures fired notices for assertions.
type noticeRecorder struct {
	notices []core.Notice
}

func (r *noticeRecorder) Notify(_ context.Context, notices ...core.Notice) {
	r.notices = append(r.notices, notices...)
}

func (r *noticeRecorder) reset() { r.notices = nil }

type fixture struct {
	svc      *classroom.Service
	repo     classroom.Repository
	members  classroom.MembershipRepository
	usrRepo  user.Repository
	notifier *noticeRecorder

	teacher user.User
	student user.User
}

func setup(t *testing.T) *fixture {
	db := dummydb.Open()

	repo := dummydb.NewClassroomRepository(db)
	members := dummydb.NewMembershipRepository(db)
	usrRepo := dummydb.NewUserRepository(db)
	notifier := &noticeRecorder{}

	svc := classroom.NewService(
		repo,
		members,
		dummydb.NewActivityRepository(db),
		user.NewService(usrRepo),
		notifier,
	)

	return &fixture{
		svc:      svc,
		repo:     repo,
		members:  members,
		usrRepo:  usrRepo,
		notifier: notifier,
		teacher:  testutil.CreateUser(t, usrRepo, "Asha Teacher", "asha@test.cd", user.RoleTeacher, "", true),
		student:  testutil.CreateUser(t, usrRepo, "Jabari Student", "jabari@test.cd", user.RoleStudent, "", true),
	}
}

var classCodeRx = regexp.MustCompile(`^[A-Z0-9]{1,3}-[0-9A-F]{4}$`)

func TestService_Create(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	nc := classroom.NewClassroom{Name: "Physics 101", Subject: "Physics"}
	require.NoError(t, nc.Validate())

	c, err := fix.svc.Create(ctx, fix.teacher.ID, nc)
	require.NoError(t, err)

	assert.Equal(t, "Physics 101", c.Name)
	assert.Equal(t, "physics", c.Subject)
	assert.Equal(t, "physics", c.SubjectSlug)
	assert.Equal(t, fix.teacher.ID, c.OwnerID)
	assert.Regexp(t, classCodeRx, c.ClassCode)

	// defaults
	assert.True(t, c.Settings.AllowJoinRequests)
	assert.Equal(t, 200, c.Settings.MaxStudents)
	assert.False(t, c.Settings.IsArchived)
	assert.Zero(t, c.MemberCount)
}

func TestService_Create_slugifiesMultiWordSubject(t *testing.T) {
	fix := setup(t)

	nc := classroom.NewClassroom{Name: "CS", Subject: "Computer Science"}
	require.NoError(t, nc.Validate())

	c, err := fix.svc.Create(context.Background(), fix.teacher.ID, nc)
	require.NoError(t, err)
	assert.Equal(t, "computer science", c.Subject)
	assert.Equal(t, "computer-science", c.SubjectSlug)
}

func TestService_RequestJoin(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()
	c := testutil.CreateClassroom(t, fix.repo, fix.teacher.ID, "Math", "math")

	m, err := fix.svc.RequestJoin(ctx, c.ID, fix.student.ID, "please")
	require.NoError(t, err)
	assert.Equal(t, classroom.StatusPending, m.Status)
	assert.Equal(t, "please", m.RequestMessage)
	assert.False(t, m.RequestedAt.IsZero())

	// owner and requester are both notified
	require.Len(t, fix.notifier.notices, 2)
	assert.Equal(t, fix.teacher.ID, fix.notifier.notices[0].RecipientID)
	assert.Equal(t, fix.student.ID, fix.notifier.notices[1].RecipientID)
	assert.Contains(t, fix.notifier.notices[0].Message, "Jabari Student")

	// duplicate pending request conflicts
	_, err = fix.svc.RequestJoin(ctx, c.ID, fix.student.ID, "")
	assert.Equal(t, classroom.ErrRequestPending, err)
}

func TestService_RequestJoin_guards(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	t.Run("classroom not found", func(t *testing.T) {
		_, err := fix.svc.RequestJoin(ctx, "deadbeef", fix.student.ID, "")
		assert.Equal(t, classroom.ErrNotFound, err)
	})

	t.Run("joins disabled", func(t *testing.T) {
		c := testutil.CreateClassroom(t, fix.repo, fix.teacher.ID, "Closed", "math",
			classroom.Settings{AllowJoinRequests: false, MaxStudents: 200})
		_, err := fix.svc.RequestJoin(ctx, c.ID, fix.student.ID, "")
		assert.Equal(t, classroom.ErrJoinsDisabled, err)
	})

	t.Run("own classroom", func(t *testing.T) {
		c := testutil.CreateClassroom(t, fix.repo, fix.teacher.ID, "Own", "math")
		_, err := fix.svc.RequestJoin(ctx, c.ID, fix.teacher.ID, "")
		assert.Equal(t, classroom.ErrOwnClassroom, err)
	})

	t.Run("already approved", func(t *testing.T) {
		c := testutil.CreateClassroom(t, fix.repo, fix.teacher.ID, "Approved", "math")
		testutil.CreateMembership(t, fix.members, c.ID, fix.student.ID, classroom.StatusApproved)
		_, err := fix.svc.RequestJoin(ctx, c.ID, fix.student.ID, "")
		assert.Equal(t, classroom.ErrAlreadyMember, err)
	})
}

func TestService_RequestJoin_resurrectsRejectedRow(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()
	c := testutil.CreateClassroom(t, fix.repo, fix.teacher.ID, "Math", "math")

	m, err := fix.svc.RequestJoin(ctx, c.ID, fix.student.ID, "first try")
	require.NoError(t, err)
	_, err = fix.svc.Respond(ctx, c.ID, m.ID, fix.teacher.ID, classroom.ActionReject, "not this term")
	require.NoError(t, err)
	fix.notifier.reset()

	again, err := fix.svc.RequestJoin(ctx, c.ID, fix.student.ID, "second try")
	require.NoError(t, err)

	// same ledger row flips back to pending; the response fields are cleared
	assert.Equal(t, m.ID, again.ID)
	assert.Equal(t, classroom.StatusPending, again.Status)
	assert.Equal(t, "second try", again.RequestMessage)
	assert.Empty(t, again.RejectionReason)
	assert.Empty(t, again.RespondedBy)
	assert.True(t, again.RespondedAt.IsZero())

	require.Len(t, fix.notifier.notices, 1)
	assert.Equal(t, fix.teacher.ID, fix.notifier.notices[0].RecipientID)
	assert.Contains(t, fix.notifier.notices[0].Title, "Re-request")
}

func TestService_Respond(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()
	c := testutil.CreateClassroom(t, fix.repo, fix.teacher.ID, "Math", "math")
	m, err := fix.svc.RequestJoin(ctx, c.ID, fix.student.ID, "")
	require.NoError(t, err)
	fix.notifier.reset()

	t.Run("only owner may respond", func(t *testing.T) {
		_, err := fix.svc.Respond(ctx, c.ID, m.ID, fix.student.ID, classroom.ActionApprove, "")
		assert.Equal(t, classroom.ErrNotOwner, err)
	})

	t.Run("approve", func(t *testing.T) {
		got, err := fix.svc.Respond(ctx, c.ID, m.ID, fix.teacher.ID, classroom.ActionApprove, "")
		require.NoError(t, err)
		assert.Equal(t, classroom.StatusApproved, got.Status)
		assert.Equal(t, fix.teacher.ID, got.RespondedBy)
		assert.False(t, got.RespondedAt.IsZero())

		refreshed, err := fix.svc.Get(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, refreshed.MemberCount)

		require.Len(t, fix.notifier.notices, 1)
		assert.Equal(t, fix.student.ID, fix.notifier.notices[0].RecipientID)
		assert.Equal(t, "request_approved", fix.notifier.notices[0].Type)
	})

	t.Run("settled requests conflict", func(t *testing.T) {
		_, err := fix.svc.Respond(ctx, c.ID, m.ID, fix.teacher.ID, classroom.ActionReject, "")
		require.Error(t, err)
		assert.IsType(t, &core.ConflictError{}, err)
		assert.EqualError(t, err, "request is already approved")
	})

	t.Run("unknown request", func(t *testing.T) {
		_, err := fix.svc.Respond(ctx, c.ID, "deadbeef", fix.teacher.ID, classroom.ActionApprove, "")
		assert.Equal(t, classroom.ErrRequestNotFound, err)
	})
}

func TestService_Respond_reject(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()
	c := testutil.CreateClassroom(t, fix.repo, fix.teacher.ID, "Math", "math")
	m, err := fix.svc.RequestJoin(ctx, c.ID, fix.student.ID, "")
	require.NoError(t, err)
	fix.notifier.reset()

	got, err := fix.svc.Respond(ctx, c.ID, m.ID, fix.teacher.ID, classroom.ActionReject, "class is full next term")
	require.NoError(t, err)
	assert.Equal(t, classroom.StatusRejected, got.Status)
	assert.Equal(t, "class is full next term", got.RejectionReason)

	// no member count bump, no approval notice
	refreshed, err := fix.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, refreshed.MemberCount)
	assert.Empty(t, fix.notifier.notices)
}

func TestService_RespondBulk_skipsSettledRequests(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()
	c := testutil.CreateClassroom(t, fix.repo, fix.teacher.ID, "Math", "math")

	s2 := testutil.CreateUser(t, fix.usrRepo, "Zuri", "zuri@test.cd", user.RoleStudent, "", true)
	s3 := testutil.CreateUser(t, fix.usrRepo, "Kito", "kito@test.cd", user.RoleStudent, "", true)

	pending1 := testutil.CreateMembership(t, fix.members, c.ID, fix.student.ID, classroom.StatusPending)
	pending2 := testutil.CreateMembership(t, fix.members, c.ID, s2.ID, classroom.StatusPending)
	settled := testutil.CreateMembership(t, fix.members, c.ID, s3.ID, classroom.StatusApproved)
	fix.notifier.reset()

	modified, err := fix.svc.RespondBulk(ctx, c.ID, fix.teacher.ID,
		[]string{pending1.ID, pending2.ID, settled.ID, "deadbeef"}, classroom.ActionApprove)
	require.NoError(t, err)

	// only the pending subset transitions; the rest are silently skipped
	assert.Equal(t, 2, modified)

	refreshed, err := fix.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, refreshed.MemberCount)

	assert.Len(t, fix.notifier.notices, 2)
	for _, n := range fix.notifier.notices {
		assert.Equal(t, "request_approved", n.Type)
	}
}

func TestService_JoinByCode(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()
	c := testutil.CreateClassroom(t, fix.repo, fix.teacher.ID, "Math", "math")

	t.Run("invalid code", func(t *testing.T) {
		_, _, err := fix.svc.JoinByCode(ctx, "NOP-0000", fix.student.ID, "")
		assert.Equal(t, classroom.ErrCodeNotFound, err)
	})

	t.Run("own classroom", func(t *testing.T) {
		_, _, err := fix.svc.JoinByCode(ctx, c.ClassCode, fix.teacher.ID, "")
		assert.Equal(t, classroom.ErrOwnClassroom, err)
	})

	t.Run("new member is admitted directly", func(t *testing.T) {
		m, got, err := fix.svc.JoinByCode(ctx, c.ClassCode, fix.student.ID, "")
		require.NoError(t, err)
		assert.Equal(t, classroom.StatusApproved, m.Status)
		assert.Equal(t, fix.teacher.ID, m.RespondedBy)
		assert.Equal(t, "Joined via Class Code", m.RequestMessage)
		assert.Equal(t, c.ID, got.ID)

		refreshed, err := fix.svc.Get(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, refreshed.MemberCount)
	})

	t.Run("joining twice conflicts", func(t *testing.T) {
		_, _, err := fix.svc.JoinByCode(ctx, c.ClassCode, fix.student.ID, "")
		assert.Equal(t, classroom.ErrAlreadyMember, err)
	})
}

func TestService_JoinByCode_upgradesExistingRequest(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()
	c := testutil.CreateClassroom(t, fix.repo, fix.teacher.ID, "Math", "math")

	for _, status := range []string{classroom.StatusPending, classroom.StatusRejected} {
		t.Run(status, func(t *testing.T) {
			stu := testutil.CreateUser(t, fix.usrRepo, "S "+status, status+"@test.cd", user.RoleStudent, "", true)
			existing := testutil.CreateMembership(t, fix.members, c.ID, stu.ID, status)

			before, err := fix.svc.Get(ctx, c.ID)
			require.NoError(t, err)

			// the class code is implicit authorization: no owner re-approval
			m, _, err := fix.svc.JoinByCode(ctx, c.ClassCode, stu.ID, "")
			require.NoError(t, err)
			assert.Equal(t, existing.ID, m.ID)
			assert.Equal(t, classroom.StatusApproved, m.Status)
			assert.Empty(t, m.RejectionReason)

			after, err := fix.svc.Get(ctx, c.ID)
			require.NoError(t, err)
			assert.Equal(t, before.MemberCount+1, after.MemberCount)
		})
	}
}

func TestService_JoinByCode_capacityAndArchive(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	t.Run("archived", func(t *testing.T) {
		c := testutil.CreateClassroom(t, fix.repo, fix.teacher.ID, "Old", "math",
			classroom.Settings{AllowJoinRequests: true, MaxStudents: 200, IsArchived: true})
		_, _, err := fix.svc.JoinByCode(ctx, c.ClassCode, fix.student.ID, "")
		assert.Equal(t, classroom.ErrArchived, err)
	})

	t.Run("full", func(t *testing.T) {
		c := testutil.CreateClassroom(t, fix.repo, fix.teacher.ID, "Tiny", "math",
			classroom.Settings{AllowJoinRequests: true, MaxStudents: 1})
		first := testutil.CreateUser(t, fix.usrRepo, "First", "first@test.cd", user.RoleStudent, "", true)
		testutil.CreateMembership(t, fix.members, c.ID, first.ID, classroom.StatusApproved)

		_, _, err := fix.svc.JoinByCode(ctx, c.ClassCode, fix.student.ID, "")
		assert.Equal(t, classroom.ErrClassroomFull, err)
	})
}

func TestService_RemoveMember(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()
	c := testutil.CreateClassroom(t, fix.repo, fix.teacher.ID, "Math", "math")

	t.Run("approved member decrements the count", func(t *testing.T) {
		testutil.CreateMembership(t, fix.members, c.ID, fix.student.ID, classroom.StatusApproved)
		require.NoError(t, fix.repo.IncrementMemberCount(ctx, c.ID, 1))

		require.NoError(t, fix.svc.RemoveMember(ctx, c.ID, fix.teacher.ID, fix.student.ID))

		refreshed, err := fix.svc.Get(ctx, c.ID)
		require.NoError(t, err)
		assert.Zero(t, refreshed.MemberCount)

		_, err = fix.members.GetMembership(ctx, c.ID, fix.student.ID)
		assert.Equal(t, classroom.ErrMemberNotFound, err)
	})

	t.Run("pending removal does not touch the count", func(t *testing.T) {
		stu := testutil.CreateUser(t, fix.usrRepo, "P", "p@test.cd", user.RoleStudent, "", true)
		testutil.CreateMembership(t, fix.members, c.ID, stu.ID, classroom.StatusPending)

		require.NoError(t, fix.svc.RemoveMember(ctx, c.ID, fix.teacher.ID, stu.ID))

		refreshed, err := fix.svc.Get(ctx, c.ID)
		require.NoError(t, err)
		assert.Zero(t, refreshed.MemberCount)
	})

	t.Run("unknown member", func(t *testing.T) {
		err := fix.svc.RemoveMember(ctx, c.ID, fix.teacher.ID, "deadbeef")
		assert.Equal(t, classroom.ErrMemberNotFound, err)
	})
}

func TestService_Delete_cascades(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()
	c := testutil.CreateClassroom(t, fix.repo, fix.teacher.ID, "Math", "math")
	testutil.CreateMembership(t, fix.members, c.ID, fix.student.ID, classroom.StatusApproved)

	t.Run("only owner may delete", func(t *testing.T) {
		assert.Equal(t, classroom.ErrNotOwner, fix.svc.Delete(ctx, c.ID, fix.student.ID))
	})

	require.NoError(t, fix.svc.Delete(ctx, c.ID, fix.teacher.ID))

	_, err := fix.svc.Get(ctx, c.ID)
	assert.Equal(t, classroom.ErrNotFound, err)

	memberships, err := fix.members.QueryMembershipsByClassroom(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, memberships)
}

func TestService_guards(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()
	c := testutil.CreateClassroom(t, fix.repo, fix.teacher.ID, "Math", "math")

	t.Run("owner passes both guards", func(t *testing.T) {
		access, err := fix.svc.RequireMember(ctx, c.ID, fix.teacher.ID)
		require.NoError(t, err)
		assert.True(t, access.IsOwner)
		assert.Nil(t, access.Membership)

		access, err = fix.svc.RequireOwner(ctx, c.ID, fix.teacher.ID)
		require.NoError(t, err)
		assert.True(t, access.IsOwner)
	})

	t.Run("approved member passes the member guard only", func(t *testing.T) {
		testutil.CreateMembership(t, fix.members, c.ID, fix.student.ID, classroom.StatusApproved)

		access, err := fix.svc.RequireMember(ctx, c.ID, fix.student.ID)
		require.NoError(t, err)
		assert.False(t, access.IsOwner)
		require.NotNil(t, access.Membership)
		assert.Equal(t, classroom.StatusApproved, access.Membership.Status)

		_, err = fix.svc.RequireOwner(ctx, c.ID, fix.student.ID)
		assert.Equal(t, classroom.ErrNotOwner, err)
	})

	t.Run("pending member is rejected", func(t *testing.T) {
		stu := testutil.CreateUser(t, fix.usrRepo, "P", "p2@test.cd", user.RoleStudent, "", true)
		testutil.CreateMembership(t, fix.members, c.ID, stu.ID, classroom.StatusPending)
		_, err := fix.svc.RequireMember(ctx, c.ID, stu.ID)
		assert.Equal(t, classroom.ErrNotMember, err)
	})

	t.Run("stranger is rejected", func(t *testing.T) {
		stranger := testutil.CreateUser(t, fix.usrRepo, "X", "x@test.cd", user.RoleStudent, "", true)
		_, err := fix.svc.RequireMember(ctx, c.ID, stranger.ID)
		assert.Equal(t, classroom.ErrNotMember, err)
	})

	t.Run("missing classroom", func(t *testing.T) {
		_, err := fix.svc.RequireMember(ctx, "deadbeef", fix.student.ID)
		assert.Equal(t, classroom.ErrNotFound, err)
	})
}

func TestService_ListForOwner_countsPendingRequests(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	c1 := testutil.CreateClassroom(t, fix.repo, fix.teacher.ID, "Math", "math")
	c2 := testutil.CreateClassroom(t, fix.repo, fix.teacher.ID, "Physics", "physics")

	s2 := testutil.CreateUser(t, fix.usrRepo, "Zuri", "zuri@test.cd", user.RoleStudent, "", true)
	testutil.CreateMembership(t, fix.members, c1.ID, fix.student.ID, classroom.StatusPending)
	testutil.CreateMembership(t, fix.members, c1.ID, s2.ID, classroom.StatusPending)
	testutil.CreateMembership(t, fix.members, c2.ID, s2.ID, classroom.StatusApproved)

	classrooms, err := fix.svc.ListForOwner(ctx, fix.teacher.ID)
	require.NoError(t, err)
	require.Len(t, classrooms, 2)

	byName := make(map[string]int, len(classrooms))
	for _, c := range classrooms {
		byName[c.Name] = c.PendingRequests
	}
	assert.Equal(t, 2, byName["Math"])
	assert.Zero(t, byName["Physics"])
}

func TestService_ListForStudent(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	c1 := testutil.CreateClassroom(t, fix.repo, fix.teacher.ID, "Math", "math")
	c2 := testutil.CreateClassroom(t, fix.repo, fix.teacher.ID, "Physics", "physics")
	c3 := testutil.CreateClassroom(t, fix.repo, fix.teacher.ID, "Bio", "biology")

	testutil.CreateMembership(t, fix.members, c1.ID, fix.student.ID, classroom.StatusApproved)
	testutil.CreateMembership(t, fix.members, c2.ID, fix.student.ID, classroom.StatusPending)
	testutil.CreateMembership(t, fix.members, c3.ID, fix.student.ID, classroom.StatusRejected)

	classrooms, err := fix.svc.ListForStudent(ctx, fix.student.ID)
	require.NoError(t, err)

	// rejected memberships are not listed
	require.Len(t, classrooms, 2)
	byName := make(map[string]string, len(classrooms))
	for _, c := range classrooms {
		byName[c.Name] = c.MembershipStatus
	}
	assert.Equal(t, classroom.StatusApproved, byName["Math"])
	assert.Equal(t, classroom.StatusPending, byName["Physics"])
}

func TestService_Discover(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	open := testutil.CreateClassroom(t, fix.repo, fix.teacher.ID, "Open Math", "math")
	testutil.CreateClassroom(t, fix.repo, fix.teacher.ID, "Closed", "math",
		classroom.Settings{AllowJoinRequests: false, MaxStudents: 200})
	testutil.CreateClassroom(t, fix.repo, fix.teacher.ID, "Archived", "math",
		classroom.Settings{AllowJoinRequests: true, MaxStudents: 200, IsArchived: true})
	physics := testutil.CreateClassroom(t, fix.repo, fix.teacher.ID, "Open Physics", "physics")

	testutil.CreateMembership(t, fix.members, open.ID, fix.student.ID, classroom.StatusPending)

	t.Run("only open classrooms are browsable", func(t *testing.T) {
		results, err := fix.svc.Discover(ctx, fix.student.ID, classroom.DiscoverFilter{})
		require.NoError(t, err)
		require.Len(t, results, 2)
	})

	t.Run("existing membership is tagged", func(t *testing.T) {
		results, err := fix.svc.Discover(ctx, fix.student.ID, classroom.DiscoverFilter{Search: "math"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, open.ID, results[0].ID)
		assert.Equal(t, classroom.StatusPending, results[0].MembershipStatus)
	})

	t.Run("subject filter", func(t *testing.T) {
		results, err := fix.svc.Discover(ctx, fix.student.ID, classroom.DiscoverFilter{Subject: "Physics"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, physics.ID, results[0].ID)
		assert.Empty(t, results[0].MembershipStatus)
	})
}

func TestService_Update(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()
	c := testutil.CreateClassroom(t, fix.repo, fix.teacher.ID, "Math", "math")

	desc := "updated description"
	uc := classroom.UpdateClassroom{
		Name:        "Math II",
		Description: &desc,
		Settings:    &classroom.Settings{AllowJoinRequests: false, MaxStudents: 30},
	}
	require.NoError(t, uc.Validate())

	got, err := fix.svc.Update(ctx, c.ID, fix.teacher.ID, uc)
	require.NoError(t, err)
	assert.Equal(t, "Math II", got.Name)
	assert.Equal(t, desc, got.Description)
	assert.False(t, got.Settings.AllowJoinRequests)
	assert.Equal(t, 30, got.Settings.MaxStudents)

	// immutables survive the update
	assert.Equal(t, c.ClassCode, got.ClassCode)
	assert.Equal(t, c.Subject, got.Subject)

	_, err = fix.svc.Update(ctx, c.ID, fix.student.ID, uc)
	assert.Equal(t, classroom.ErrNotOwner, err)
}

func TestService_NotifyMembers(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()
	c := testutil.CreateClassroom(t, fix.repo, fix.teacher.ID, "Math", "math")

	s2 := testutil.CreateUser(t, fix.usrRepo, "Zuri", "zuri@test.cd", user.RoleStudent, "", true)
	s3 := testutil.CreateUser(t, fix.usrRepo, "Kito", "kito@test.cd", user.RoleStudent, "", true)
	testutil.CreateMembership(t, fix.members, c.ID, fix.student.ID, classroom.StatusApproved)
	testutil.CreateMembership(t, fix.members, c.ID, s2.ID, classroom.StatusApproved)
	testutil.CreateMembership(t, fix.members, c.ID, s3.ID, classroom.StatusPending)
	fix.notifier.reset()

	recipients, err := fix.svc.NotifyMembers(ctx, c.ID, fix.teacher.ID, "", "Exam moved", "Friday 10am", "")
	require.NoError(t, err)

	// pending members are not notified
	assert.Equal(t, 2, recipients)
	require.Len(t, fix.notifier.notices, 2)
	assert.Equal(t, "system", fix.notifier.notices[0].Type)
	assert.Equal(t, "Exam moved", fix.notifier.notices[0].Title)
}

func TestGenerateClassCode(t *testing.T) {
	code := classroom.GenerateClassCode("physics")
	assert.Regexp(t, classCodeRx, code)
	assert.Equal(t, "PHY-", code[:4])

	// short subjects keep their full prefix
	assert.Equal(t, "IT-", classroom.GenerateClassCode("it")[:3])
}

package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulane/darasa/core"
	"github.com/edulane/darasa/core/user"
	dummydb "github.com/edulane/darasa/storage/database/dummy"
	testutil "github.com/edulane/darasa/tests"
)

func setup() (*user.Service, user.Repository) {
	repo := dummydb.NewUserRepository(dummydb.Open())
	return user.NewService(repo), repo
}

func TestService_Create(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()

	nu := user.NewUser{
		Name:            "  Jabari  ",
		Email:           "Jabari@Test.CD",
		Password:        "Secret123!",
		PasswordConfirm: "Secret123!",
	}
	require.NoError(t, nu.Validate(svc))

	// validation cleans inputs and defaults the role
	assert.Equal(t, "Jabari", nu.Name)
	assert.Equal(t, "jabari@test.cd", nu.Email)
	assert.Equal(t, user.RoleStudent, nu.Role)

	usr, err := svc.Create(ctx, nu)
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.True(t, usr.IsActive)
	assert.True(t, usr.IsStudent())
	assert.NotEmpty(t, usr.PasswordHash)
	assert.NoError(t, usr.CheckPassword("Secret123!"))
	assert.Error(t, usr.CheckPassword("wrong"))
}

func TestNewUser_Validate(t *testing.T) {
	svc, repo := setup()
	testutil.CreateUser(t, repo, "Existing", "taken@test.cd", user.RoleStudent, "", true)

	tests := []struct {
		name    string
		nu      user.NewUser
		wantErr string // empty means valid
	}{
		{
			name: "valid teacher",
			nu:   user.NewUser{Name: "Asha", Email: "asha@test.cd", Role: user.RoleTeacher, Password: "Secret123!", PasswordConfirm: "Secret123!"},
		},
		{
			name:    "missing name",
			nu:      user.NewUser{Email: "a@test.cd", Password: "Secret123!", PasswordConfirm: "Secret123!"},
			wantErr: "name",
		},
		{
			name:    "bad email",
			nu:      user.NewUser{Name: "A", Email: "not-an-email", Password: "Secret123!", PasswordConfirm: "Secret123!"},
			wantErr: "email",
		},
		{
			name:    "short password",
			nu:      user.NewUser{Name: "A", Email: "a@test.cd", Password: "short", PasswordConfirm: "short"},
			wantErr: "password",
		},
		{
			name:    "password mismatch",
			nu:      user.NewUser{Name: "A", Email: "a@test.cd", Password: "Secret123!", PasswordConfirm: "Secret124!"},
			wantErr: "password_confirm",
		},
		{
			name:    "unknown role",
			nu:      user.NewUser{Name: "A", Email: "a@test.cd", Role: "admin", Password: "Secret123!", PasswordConfirm: "Secret123!"},
			wantErr: "role",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nu.Validate(svc)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("duplicate email", func(t *testing.T) {
		nu := user.NewUser{Name: "A", Email: "Taken@Test.CD", Password: "Secret123!", PasswordConfirm: "Secret123!"}
		err := nu.Validate(svc)
		require.Error(t, err)

		var verr *core.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Len(t, verr.Fields, 1)
		assert.Equal(t, "email", verr.Fields[0].Field)
	})
}

func TestService_GetByEmail(t *testing.T) {
	svc, repo := setup()
	usr := testutil.CreateUser(t, repo, "Jabari", "jabari@test.cd", user.RoleStudent, "", true)

	got, err := svc.GetByEmail(context.Background(), "  Jabari@Test.CD ")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	_, err = svc.GetByEmail(context.Background(), "nobody@test.cd")
	assert.Equal(t, user.ErrNotFound, err)
}

func TestService_TouchLastLogin(t *testing.T) {
	svc, repo := setup()
	usr := testutil.CreateUser(t, repo, "Jabari", "jabari@test.cd", user.RoleStudent, "", true)
	require.True(t, usr.LastLogin.IsZero())

	require.NoError(t, svc.TouchLastLogin(context.Background(), usr.ID))

	got, err := svc.GetByID(context.Background(), usr.ID)
	require.NoError(t, err)
	assert.False(t, got.LastLogin.IsZero())

	assert.Equal(t, user.ErrNotFound, svc.TouchLastLogin(context.Background(), "ghost"))
}

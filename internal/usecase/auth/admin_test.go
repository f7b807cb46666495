package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eci4ever/bizadmin/internal/boundaries/in"
	"github.com/eci4ever/bizadmin/internal/domain"
)

func TestRequireAdmin(t *testing.T) {
	assert.ErrorIs(t, requireAdmin(nil), domain.ErrUnauthorized)
	assert.ErrorIs(t, requireAdmin(&domain.Identity{User: domain.User{Role: domain.RoleUser}}), domain.ErrForbidden)
	assert.ErrorIs(t, requireAdmin(&domain.Identity{User: domain.User{Role: "superuser"}}), domain.ErrForbidden)
	assert.NoError(t, requireAdmin(&domain.Identity{User: domain.User{Role: domain.RoleAdmin}}))
}

func TestAdminOperations_NonAdminForbidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signUp(t, "Alice", "alice@example.com")
	bob := env.signUp(t, "Bob", "bob@example.com")

	_, err := env.svc.BanUser(ctx, alice, bob.User.ID, "spam", 0)
	require.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, "Only admins can perform this action", domain.Message(err))

	target, err := env.store.Users().GetByID(ctx, bob.User.ID)
	require.NoError(t, err)
	assert.False(t, target.Banned)

	_, err = env.svc.ListUsers(ctx, alice, domain.ListUsersQuery{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = env.svc.CreateUser(ctx, alice, in.CreateUserInput{Name: "X", Email: "x@example.com", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, env.svc.RemoveUser(ctx, alice, bob.User.ID), domain.ErrForbidden)
	assert.ErrorIs(t, env.svc.RevokeUserSessions(ctx, alice, bob.User.ID), domain.ErrForbidden)
	_, err = env.svc.SetRole(ctx, alice, alice.User.ID, domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = env.svc.BanUser(ctx, nil, bob.User.ID, "", 0)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestBanUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t)
	bob := env.signUp(t, "Bob", "bob@example.com")

	user, err := env.svc.BanUser(ctx, admin, bob.User.ID, "", 0)
	require.NoError(t, err)
	assert.True(t, user.Banned)
	require.NotNil(t, user.BanReason)
	assert.Equal(t, "No reason", *user.BanReason)
	assert.Nil(t, user.BanExpires)

	got, err := env.svc.GetSession(ctx, bob.Session.Token)
	require.NoError(t, err)
	assert.Nil(t, got, "ban revokes sessions")

	_, err = env.svc.SignIn(ctx, "bob@example.com", "password123", domain.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrBanned)

	user, err = env.svc.UnbanUser(ctx, admin, bob.User.ID)
	require.NoError(t, err)
	assert.False(t, user.Banned)
	assert.Nil(t, user.BanReason)

	_, err = env.svc.SignIn(ctx, "bob@example.com", "password123", domain.RequestMeta{})
	assert.NoError(t, err)
}

func TestBanUser_Expiring(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t)
	bob := env.signUp(t, "Bob", "bob@example.com")

	_, err := env.svc.BanUser(ctx, admin, bob.User.ID, "cool off", time.Hour)
	require.NoError(t, err)

	_, err = env.svc.SignIn(ctx, "bob@example.com", "password123", domain.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrBanned)

	env.advance(time.Hour)
	id, err := env.svc.SignIn(ctx, "bob@example.com", "password123", domain.RequestMeta{})
	require.NoError(t, err)

	got, err := env.svc.GetSession(ctx, id.Session.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.User.Banned, "lapsed ban is cleared")
}

func TestBanUser_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t)
	bob := env.signUp(t, "Bob", "bob@example.com")

	_, err := env.svc.BanUser(ctx, admin, admin.User.ID, "", 0)
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "You cannot ban yourself", domain.Message(err))

	_, err = env.svc.BanUser(ctx, admin, "missing", "", 0)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "User not found", domain.Message(err))

	_, err = env.svc.BanUser(ctx, admin, bob.User.ID, "<script>x</script>", 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRemoveUser_Cascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t)
	bob := env.signUp(t, "Bob", "bob@example.com")

	err := env.svc.RemoveUser(ctx, admin, admin.User.ID)
	require.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, env.svc.RemoveUser(ctx, admin, bob.User.ID))

	got, err := env.svc.GetSession(ctx, bob.Session.Token)
	require.NoError(t, err)
	assert.Nil(t, got)

	sessions, err := env.store.Sessions().ListByUser(ctx, bob.User.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	_, err = env.store.Accounts().GetByUserAndProvider(ctx, bob.User.ID, domain.CredentialProvider)
	assert.Error(t, err)

	assert.ErrorIs(t, env.svc.RemoveUser(ctx, admin, bob.User.ID), domain.ErrNotFound)
}

func TestCreateAndUpdateUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t)

	user, err := env.svc.CreateUser(ctx, admin, in.CreateUserInput{
		Name: "Carol", Email: "Carol@Example.com", Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.Equal(t, "carol@example.com", user.Email)

	_, err = env.svc.SignIn(ctx, "carol@example.com", "password123", domain.RequestMeta{})
	require.NoError(t, err)

	email := "root@example.com"
	_, err = env.svc.AdminUpdateUser(ctx, admin, user.ID, domain.UserPatch{Email: &email})
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "Email already exists", domain.Message(err))

	name := "Caroline"
	updated, err := env.svc.AdminUpdateUser(ctx, admin, user.ID, domain.UserPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Caroline", updated.Name)
	assert.Equal(t, "carol@example.com", updated.Email)

	_, err = env.svc.AdminUpdateUser(ctx, admin, "missing", domain.UserPatch{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	promoted, err := env.svc.SetRole(ctx, admin, user.ID, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, promoted.Role)

	_, err = env.svc.SetRole(ctx, admin, user.ID, "owner")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t)
	env.signUp(t, "Alice", "alice@example.com")
	env.advance(time.Second)
	env.signUp(t, "Bob", "bob@example.com")

	page, err := env.svc.ListUsers(ctx, admin, domain.ListUsersQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, domain.DefaultListLimit, page.Limit)
	assert.Equal(t, "bob@example.com", page.Users[0].Email)

	page, err = env.svc.ListUsers(ctx, admin, domain.ListUsersQuery{
		FilterField: "role", FilterValue: "admin",
	})
	require.NoError(t, err)
	require.Len(t, page.Users, 1)
	assert.Equal(t, "root@example.com", page.Users[0].Email)

	_, err = env.svc.ListUsers(ctx, admin, domain.ListUsersQuery{SortBy: "password"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUserSessionsAndPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t)
	bob := env.signUp(t, "Bob", "bob@example.com")

	sessions, err := env.svc.ListUserSessions(ctx, admin, bob.User.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	require.NoError(t, env.svc.SetUserPassword(ctx, admin, bob.User.ID, "adminchosen1"))
	_, err = env.svc.SignIn(ctx, "bob@example.com", "adminchosen1", domain.RequestMeta{})
	require.NoError(t, err)

	require.NoError(t, env.svc.RevokeUserSessions(ctx, admin, bob.User.ID))
	sessions, err = env.svc.ListUserSessions(ctx, admin, bob.User.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestImpersonation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t)
	bob := env.signUp(t, "Bob", "bob@example.com")

	_, err := env.svc.ImpersonateUser(ctx, admin, admin.User.ID, domain.RequestMeta{})
	require.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, "Cannot impersonate an admin", domain.Message(err))

	err = env.svc.StopImpersonating(ctx, bob)
	require.ErrorIs(t, err, domain.ErrValidation)

	imp, err := env.svc.ImpersonateUser(ctx, admin, bob.User.ID, domain.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, bob.User.ID, imp.User.ID)
	require.NotNil(t, imp.Session.ImpersonatedBy)
	assert.Equal(t, admin.User.ID, *imp.Session.ImpersonatedBy)
	assert.Equal(t, env.clock.Add(time.Hour), imp.Session.ExpiresAt)

	require.NoError(t, env.svc.StopImpersonating(ctx, imp))
	got, err := env.svc.GetSession(ctx, imp.Session.Token)
	require.NoError(t, err)
	assert.Nil(t, got)
}

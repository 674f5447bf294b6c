package library

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccountAndAuthenticate(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()

	user, err := db.CreateAccount(ctx, "alice", "s3cret", RoleMember, "Alice A")
	require.NoError(t, err)
	assert.Equal(t, RoleMember, user.Role)

	got, err := db.Authenticate(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Empty(t, got.PasswordHash, "hash never leaves the store")

	_, err = db.Authenticate(ctx, "alice", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = db.Authenticate(ctx, "nobody", "s3cret")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPasswordsAreNotStoredInPlaintext(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	_, err := db.CreateAccount(ctx, "alice", "s3cret", RoleMember, "Alice A")
	require.NoError(t, err)

	var stored string
	require.NoError(t, db.db.Get(&stored,
		`SELECT password_hash FROM users WHERE username=?`, "alice"))
	assert.NotEqual(t, "s3cret", stored)
	assert.NotEmpty(t, stored)
}

func TestCreateAccountDuplicateUsername(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()

	_, err := db.CreateAccount(ctx, "alice", "pw", RoleMember, "Alice A")
	require.NoError(t, err)
	_, err = db.CreateAccount(ctx, "alice", "pw2", RoleLibrarian, "")
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestCreateAccountValidation(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()

	_, err := db.CreateAccount(ctx, "", "pw", RoleMember, "Name")
	require.Error(t, err)
	_, err = db.CreateAccount(ctx, "u", "", RoleMember, "Name")
	require.Error(t, err)
	_, err = db.CreateAccount(ctx, "u", "pw", "admin", "Name")
	require.Error(t, err)
	_, err = db.CreateAccount(ctx, "u", "pw", RoleMember, "  ")
	require.Error(t, err, "members must provide a full name")
}

func TestMemberAccountGetsMemberRow(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()

	user, err := db.CreateAccount(ctx, "alice", "pw", RoleMember, "Alice A")
	require.NoError(t, err)

	member, err := db.MemberByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice A", member.FullName)
	assert.Equal(t, "alice", member.Username)
	assert.False(t, member.JoinDate.IsZero())

	ok, err := db.MemberExists(ctx, member.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLibrarianAccountHasNoMemberRow(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()

	user, err := db.CreateAccount(ctx, "libby", "pw", RoleLibrarian, "")
	require.NoError(t, err)

	_, err = db.MemberByUserID(ctx, user.ID)
	require.ErrorIs(t, err, ErrMemberNotFound)
}

func TestListMembers(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	addMember(t, db, "alice", "Alice A")
	addMember(t, db, "bob", "Bob B")
	_, err := db.CreateAccount(ctx, "libby", "pw", RoleLibrarian, "")
	require.NoError(t, err)

	members, err := db.ListMembers(ctx)
	require.NoError(t, err)
	require.Len(t, members, 2, "librarians are not members")
	assert.Equal(t, "alice", members[0].Username)
	assert.Equal(t, "bob", members[1].Username)
}

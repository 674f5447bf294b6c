package library

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClubLifecycle(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()

	clubID, err := db.CreateClub(ctx, "Sci-Fi Circle", "Weekly sci-fi reads")
	require.NoError(t, err)
	memberID := addMember(t, db, "alice", "Alice A")

	joined, err := db.JoinClub(ctx, clubID, memberID)
	require.NoError(t, err)
	assert.True(t, joined)

	// Joining again is reported, not an error.
	joined, err = db.JoinClub(ctx, clubID, memberID)
	require.NoError(t, err)
	assert.False(t, joined)

	members, err := db.ClubMembers(ctx, clubID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "Alice A", members[0].FullName)

	clubs, err := db.MemberClubs(ctx, memberID)
	require.NoError(t, err)
	require.Len(t, clubs, 1)
	assert.Equal(t, "Sci-Fi Circle", clubs[0].Name)

	require.NoError(t, db.LeaveClub(ctx, clubID, memberID))
	require.ErrorIs(t, db.LeaveClub(ctx, clubID, memberID), ErrNotClubMember)

	clubs, err = db.MemberClubs(ctx, memberID)
	require.NoError(t, err)
	assert.Empty(t, clubs)
}

func TestJoinClubValidation(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	memberID := addMember(t, db, "alice", "Alice A")
	clubID, err := db.CreateClub(ctx, "Circle", "")
	require.NoError(t, err)

	_, err = db.JoinClub(ctx, 999, memberID)
	require.ErrorIs(t, err, ErrClubNotFound)
	_, err = db.JoinClub(ctx, clubID, 999)
	require.ErrorIs(t, err, ErrMemberNotFound)
}

func TestDeleteClubCascadesMembership(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	clubID, err := db.CreateClub(ctx, "Doomed", "")
	require.NoError(t, err)
	memberID := addMember(t, db, "alice", "Alice A")
	_, err = db.JoinClub(ctx, clubID, memberID)
	require.NoError(t, err)

	require.NoError(t, db.DeleteClub(ctx, clubID))
	require.ErrorIs(t, db.DeleteClub(ctx, clubID), ErrClubNotFound)

	clubs, err := db.MemberClubs(ctx, memberID)
	require.NoError(t, err)
	assert.Empty(t, clubs)
}

func TestListClubsOrdering(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	_, err := db.CreateClub(ctx, "Zen Readers", "")
	require.NoError(t, err)
	_, err = db.CreateClub(ctx, "Argonauts", "")
	require.NoError(t, err)

	clubs, err := db.ListClubs(ctx)
	require.NoError(t, err)
	require.Len(t, clubs, 2)
	assert.Equal(t, "Argonauts", clubs[0].Name)
}

func TestDuplicateClubName(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	_, err := db.CreateClub(ctx, "Circle", "")
	require.NoError(t, err)
	_, err = db.CreateClub(ctx, "Circle", "again")
	require.Error(t, err)
}

package library

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *LibraryManager {
	t.Helper()
	dir := t.TempDir()
	mgr, err := NewLibraryManager(filepath.Join(dir, "lib.db"), nil)
	require.NoError(t, err, "mgr")
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

// TestManagerBorrowReturnFlow drives the façade the way the CLI does:
// create an account, stock a book, borrow it and give it back.
func TestManagerBorrowReturnFlow(t *testing.T) {
	mgr := newManager(t)
	ctx := context.Background()

	user, err := mgr.CreateAccount(ctx, "alice", "pw", RoleMember, "Alice A")
	require.NoError(t, err)
	member, err := mgr.MemberByUserID(ctx, user.ID)
	require.NoError(t, err)

	bookID, err := mgr.AddBook(ctx, "Dune", "", "Frank Herbert", "sci-fi", 1)
	require.NoError(t, err)

	loan, err := mgr.Borrow(ctx, member.ID, bookID)
	require.NoError(t, err)

	open, err := mgr.OpenLoans(ctx, member.ID)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "Dune", open[0].Title)

	_, err = mgr.Return(ctx, loan.ID)
	require.NoError(t, err)

	available, err := mgr.AvailableCopies(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, 1, available)
}

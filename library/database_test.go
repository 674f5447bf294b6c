package library

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func tempDB(t *testing.T) *Database {
	t.Helper()
	dir := t.TempDir()
	db, err := NewDatabase(filepath.Join(dir, "test.db"))
	require.NoError(t, err, "new db")
	t.Cleanup(func() { db.Close() })
	return db
}

// addMember registers a member account and returns the member id.
func addMember(t *testing.T, db *Database, username, fullName string) int64 {
	t.Helper()
	ctx := context.Background()
	user, err := db.CreateAccount(ctx, username, "secret", RoleMember, fullName)
	require.NoError(t, err, "create account")
	member, err := db.MemberByUserID(ctx, user.ID)
	require.NoError(t, err, "resolve member")
	return member.ID
}

// addBook inserts a title with the given copy count and returns its id.
func addBook(t *testing.T, db *Database, title string, copies int) int64 {
	t.Helper()
	id, err := db.AddBook(context.Background(), title, "", "Anon", "fiction", copies)
	require.NoError(t, err, "add book")
	return id
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.db")

	db, err := NewDatabase(path)
	require.NoError(t, err)
	id := addBook(t, db, "Persistent", 2)
	require.NoError(t, db.Close())

	// Reopening must re-run migrations without clobbering data.
	db, err = NewDatabase(path)
	require.NoError(t, err)
	defer db.Close()

	book, err := db.GetBook(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, "Persistent", book.Title)
	require.Equal(t, 2, book.CopiesTotal)
}

func TestForeignKeysEnforced(t *testing.T) {
	db := tempDB(t)

	// A loan row may never reference a nonexistent book or member.
	_, err := db.db.Exec(
		`INSERT INTO loans(book_id, member_id, loan_date, due_date, status)
         VALUES(999, 999, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP, 'borrowed')`)
	require.Error(t, err)
}

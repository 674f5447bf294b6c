package library

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndGetBook(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()

	id, err := db.AddBook(ctx, "Dune", "9780441172719", "Frank Herbert", "sci-fi", 4)
	require.NoError(t, err)

	book, err := db.GetBook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, "9780441172719", book.ISBN)
	assert.Equal(t, 4, book.CopiesTotal)
	assert.Equal(t, 4, book.CopiesAvailable, "all copies start available")

	_, err = db.GetBook(ctx, id+1)
	require.ErrorIs(t, err, ErrBookNotFound)
}

func TestAddBookValidation(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()

	_, err := db.AddBook(ctx, "   ", "", "", "", 1)
	require.Error(t, err)
	_, err = db.AddBook(ctx, "Neg", "", "", "", -1)
	require.Error(t, err)
}

func TestListBooksOrdering(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	addBook(t, db, "Zebra", 1)
	addBook(t, db, "Aardvark", 1)

	books, err := db.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "Aardvark", books[0].Title)
	assert.Equal(t, "Zebra", books[1].Title)
}

func TestListAvailableBooksSkipsExhausted(t *testing.T) {
	db := tempDB(t)
	ledger := NewLedger(db.db, nil)
	ctx := context.Background()

	rare := addBook(t, db, "Rare", 1)
	addBook(t, db, "Common", 5)
	memberID := addMember(t, db, "alice", "Alice A")

	_, err := ledger.Borrow(ctx, memberID, rare)
	require.NoError(t, err)

	books, err := db.ListAvailableBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Common", books[0].Title)
}

func TestUpdateBook(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	id := addBook(t, db, "Draft", 1)

	require.NoError(t, db.UpdateBook(ctx, id, "Final", "isbn-1", "A. Uthor", "history"))
	book, err := db.GetBook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Final", book.Title)
	assert.Equal(t, "history", book.Category)

	require.ErrorIs(t, db.UpdateBook(ctx, id+1, "X", "", "", ""), ErrBookNotFound)
}

func TestSetCopiesTotalPreservesOpenLoans(t *testing.T) {
	db := tempDB(t)
	ledger := NewLedger(db.db, nil)
	ctx := context.Background()
	id := addBook(t, db, "Dune", 3)
	memberID := addMember(t, db, "alice", "Alice A")

	_, err := ledger.Borrow(ctx, memberID, id)
	require.NoError(t, err)
	_, err = ledger.Borrow(ctx, memberID, id)
	require.NoError(t, err)
	// 2 copies out, 1 available.

	// Growing keeps the two open loans accounted for.
	require.NoError(t, db.SetCopiesTotal(ctx, id, 5))
	book, _ := db.GetBook(ctx, id)
	assert.Equal(t, 5, book.CopiesTotal)
	assert.Equal(t, 3, book.CopiesAvailable)

	// Shrinking to exactly the outstanding count is allowed.
	require.NoError(t, db.SetCopiesTotal(ctx, id, 2))
	book, _ = db.GetBook(ctx, id)
	assert.Equal(t, 0, book.CopiesAvailable)

	// Shrinking below the outstanding count is not.
	require.ErrorIs(t, db.SetCopiesTotal(ctx, id, 1), ErrCopiesInUse)

	require.ErrorIs(t, db.SetCopiesTotal(ctx, 999, 1), ErrBookNotFound)
}

func TestDeleteBookGuardedByLoanHistory(t *testing.T) {
	db := tempDB(t)
	ledger := NewLedger(db.db, nil)
	ctx := context.Background()

	fresh := addBook(t, db, "Fresh", 1)
	lent := addBook(t, db, "Lent", 1)
	memberID := addMember(t, db, "alice", "Alice A")

	loan, err := ledger.Borrow(ctx, memberID, lent)
	require.NoError(t, err)
	_, err = ledger.Return(ctx, loan.ID)
	require.NoError(t, err)

	// Even a fully returned loan pins the book: history is durable.
	require.ErrorIs(t, db.DeleteBook(ctx, lent), ErrBookHasLoans)

	require.NoError(t, db.DeleteBook(ctx, fresh))
	_, err = db.GetBook(ctx, fresh)
	require.ErrorIs(t, err, ErrBookNotFound)

	require.ErrorIs(t, db.DeleteBook(ctx, fresh), ErrBookNotFound)
}

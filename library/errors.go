package library

import (
	"errors"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// Failure taxonomy for the lending ledger and its collaborators.
// Callers match these with errors.Is. Anything not listed here that
// surfaces from an operation is an underlying storage failure.
var (
	// ErrBookNotFound is returned when a book id references no catalog row.
	ErrBookNotFound = errors.New("book not found")

	// ErrMemberNotFound is returned when a member id references no member.
	ErrMemberNotFound = errors.New("member not found")

	// ErrNoCopiesAvailable is returned by Borrow when every copy of the
	// book is out on loan.
	ErrNoCopiesAvailable = errors.New("no copies available")

	// ErrBorrowLimitExceeded is returned by Borrow when the member
	// already holds MaxActiveLoans open loans.
	ErrBorrowLimitExceeded = errors.New("borrow limit exceeded")

	// ErrLoanNotOpen is returned by Return when the loan id is unknown
	// or the loan has already been returned.
	ErrLoanNotOpen = errors.New("loan does not exist or is not open")

	// ErrBookHasLoans is returned when deleting a book that still has
	// loan history; loans are never deleted, so neither is the book.
	ErrBookHasLoans = errors.New("book has loans on record")

	// ErrCopiesInUse is returned when shrinking a book's copy total
	// below the number of copies currently out on loan.
	ErrCopiesInUse = errors.New("copies are out on loan")

	// ErrUsernameTaken is returned when creating an account with a
	// username that already exists.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrInvalidCredentials is returned on any login mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrClubNotFound is returned when a club id references no club.
	ErrClubNotFound = errors.New("book club not found")

	// ErrNotClubMember is returned when leaving a club the member never joined.
	ErrNotClubMember = errors.New("not a member of this club")
)

// isPolicyError reports whether err is a precondition failure that must
// be surfaced to the caller unchanged. Policy errors are never retried.
func isPolicyError(err error) bool {
	return errors.Is(err, ErrBookNotFound) ||
		errors.Is(err, ErrMemberNotFound) ||
		errors.Is(err, ErrNoCopiesAvailable) ||
		errors.Is(err, ErrBorrowLimitExceeded) ||
		errors.Is(err, ErrLoanNotOpen)
}

// isRetryable reports whether err is a transient SQLite lock conflict.
// Only busy/locked conflicts qualify; everything else fails fast.
func isRetryable(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked
	}
	return false
}

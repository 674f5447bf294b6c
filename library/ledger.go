package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Lending policy. Fixed, not configurable per member or book.
const (
	// LoanPeriod is the due-date offset applied at borrow time.
	LoanPeriod = 14 * 24 * time.Hour

	// MaxActiveLoans is the number of simultaneously open loans a
	// single member may hold.
	MaxActiveLoans = 3
)

// conflictRetryDelay is the pause before the single automatic retry of
// a busy/locked conflict.
const conflictRetryDelay = 50 * time.Millisecond

// Ledger owns the rules for borrowing and returning book copies and
// keeps copies_available consistent with the set of open loans. Each
// operation is a single transaction over the injected handle; the
// Ledger never opens its own connection.
type Ledger struct {
	db  *sqlx.DB
	log *slog.Logger
}

// NewLedger returns a Ledger over db. A nil logger disables logging.
func NewLedger(db *sqlx.DB, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Ledger{db: db, log: log}
}

// Borrow lends one copy of the book to the member.
//
// Preconditions, each a distinct failure: the book must exist
// (ErrBookNotFound), have a free copy (ErrNoCopiesAvailable), the
// member must be under the borrow cap (ErrBorrowLimitExceeded) and
// must exist (ErrMemberNotFound). On success the created loan is
// returned with due date = loan date + LoanPeriod, and the book's
// availability is decremented in the same transaction.
func (lg *Ledger) Borrow(ctx context.Context, memberID, bookID int64) (*Loan, error) {
	var loan *Loan
	err := lg.withConflictRetry(ctx, "borrow", func() error {
		var err error
		loan, err = lg.borrow(ctx, memberID, bookID)
		return err
	})
	if err != nil {
		return nil, err
	}
	lg.log.Info("book borrowed",
		"loan_id", loan.ID, "book_id", bookID, "member_id", memberID, "due", loan.DueDate)
	return loan, nil
}

func (lg *Ledger) borrow(ctx context.Context, memberID, bookID int64) (*Loan, error) {
	tx, err := lg.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin borrow: %w", err)
	}
	defer tx.Rollback()

	var available int
	err = tx.QueryRowContext(ctx, `SELECT copies_available FROM books WHERE book_id=?`, bookID).
		Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read availability: %w", err)
	}
	if available <= 0 {
		return nil, ErrNoCopiesAvailable
	}

	var active int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM loans WHERE member_id=? AND status=?`, memberID, StatusBorrowed).
		Scan(&active)
	if err != nil {
		return nil, fmt.Errorf("count active loans: %w", err)
	}
	if active >= MaxActiveLoans {
		return nil, ErrBorrowLimitExceeded
	}

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM members WHERE member_id=?)`, memberID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check member: %w", err)
	}
	if !exists {
		return nil, ErrMemberNotFound
	}

	now := time.Now().UTC()
	due := now.Add(LoanPeriod)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO loans(book_id, member_id, loan_date, due_date, status) VALUES(?,?,?,?,?)`,
		bookID, memberID, now, due, StatusBorrowed)
	if err != nil {
		return nil, fmt.Errorf("insert loan: %w", err)
	}
	loanID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("loan id: %w", err)
	}

	// The guard repeats the availability check so the decrement can
	// never push the counter below zero even if the read above went stale.
	res, err = tx.ExecContext(ctx,
		`UPDATE books SET copies_available = copies_available - 1
         WHERE book_id=? AND copies_available > 0`, bookID)
	if err != nil {
		return nil, fmt.Errorf("decrement availability: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n != 1 {
		return nil, fmt.Errorf("availability changed under borrow of book %d", bookID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit borrow: %w", err)
	}

	return &Loan{
		ID:       loanID,
		BookID:   bookID,
		MemberID: memberID,
		LoanDate: now,
		DueDate:  due,
		Status:   StatusBorrowed,
	}, nil
}

// Return closes an open loan and puts its copy back in circulation.
// A missing or already-returned loan fails with ErrLoanNotOpen; the
// availability increment therefore can never run twice for one loan.
func (lg *Ledger) Return(ctx context.Context, loanID int64) (*Loan, error) {
	var loan *Loan
	err := lg.withConflictRetry(ctx, "return", func() error {
		var err error
		loan, err = lg.returnLoan(ctx, loanID)
		return err
	})
	if err != nil {
		return nil, err
	}
	lg.log.Info("book returned",
		"loan_id", loan.ID, "book_id", loan.BookID, "member_id", loan.MemberID)
	return loan, nil
}

func (lg *Ledger) returnLoan(ctx context.Context, loanID int64) (*Loan, error) {
	tx, err := lg.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin return: %w", err)
	}
	defer tx.Rollback()

	var loan Loan
	err = tx.GetContext(ctx, &loan,
		`SELECT loan_id, book_id, member_id, loan_date, due_date, return_date, status
         FROM loans WHERE loan_id=? AND status=?`, loanID, StatusBorrowed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLoanNotOpen
	}
	if err != nil {
		return nil, fmt.Errorf("read loan: %w", err)
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE loans SET status=?, return_date=? WHERE loan_id=? AND status=?`,
		StatusReturned, now, loanID, StatusBorrowed)
	if err != nil {
		return nil, fmt.Errorf("close loan: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n != 1 {
		return nil, ErrLoanNotOpen
	}

	// Bounded above by copies_total; with the state-transition guard in
	// place the bound can only trip on external corruption.
	res, err = tx.ExecContext(ctx,
		`UPDATE books SET copies_available = copies_available + 1
         WHERE book_id=? AND copies_available < copies_total`, loan.BookID)
	if err != nil {
		return nil, fmt.Errorf("increment availability: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n != 1 {
		return nil, fmt.Errorf("availability already at total for book %d", loan.BookID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit return: %w", err)
	}

	loan.Status = StatusReturned
	loan.ReturnDate = sql.NullTime{Time: now, Valid: true}
	return &loan, nil
}

// withConflictRetry runs fn and retries it exactly once if it failed
// with a transient lock conflict. Policy errors fail fast and are
// surfaced unchanged.
func (lg *Ledger) withConflictRetry(ctx context.Context, op string, fn func() error) error {
	err := fn()
	if err == nil || isPolicyError(err) || !isRetryable(err) {
		return err
	}

	lg.log.Warn("storage conflict, retrying once", "op", op, "err", err)
	select {
	case <-time.After(conflictRetryDelay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return fn()
}

// ---------------------------------------------------------------------------
// Derived queries
// ---------------------------------------------------------------------------

// AvailableCopies returns the book's current lendable-copy count.
func (lg *Ledger) AvailableCopies(ctx context.Context, bookID int64) (int, error) {
	var available int
	err := lg.db.GetContext(ctx, &available,
		`SELECT copies_available FROM books WHERE book_id=?`, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrBookNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("read availability: %w", err)
	}
	return available, nil
}

// ActiveLoanCount returns the member's number of open loans.
func (lg *Ledger) ActiveLoanCount(ctx context.Context, memberID int64) (int, error) {
	var active int
	err := lg.db.GetContext(ctx, &active,
		`SELECT COUNT(*) FROM loans WHERE member_id=? AND status=?`, memberID, StatusBorrowed)
	if err != nil {
		return 0, fmt.Errorf("count active loans: %w", err)
	}
	return active, nil
}

// OpenLoans returns the member's outstanding loans with book titles,
// newest first.
func (lg *Ledger) OpenLoans(ctx context.Context, memberID int64) ([]*LoanDetail, error) {
	var loans []*LoanDetail
	err := lg.db.SelectContext(ctx, &loans, `
        SELECT l.loan_id, l.book_id, l.member_id, l.loan_date, l.due_date,
               l.return_date, l.status, b.title
        FROM loans l
        JOIN books b ON b.book_id = l.book_id
        WHERE l.member_id=? AND l.status=?
        ORDER BY l.loan_date DESC`, memberID, StatusBorrowed)
	if err != nil {
		return nil, fmt.Errorf("list open loans: %w", err)
	}
	return loans, nil
}

// MemberLoanHistory returns every loan the member ever had, newest first.
func (lg *Ledger) MemberLoanHistory(ctx context.Context, memberID int64) ([]*LoanDetail, error) {
	var loans []*LoanDetail
	err := lg.db.SelectContext(ctx, &loans, `
        SELECT l.loan_id, l.book_id, l.member_id, l.loan_date, l.due_date,
               l.return_date, l.status, b.title
        FROM loans l
        JOIN books b ON b.book_id = l.book_id
        WHERE l.member_id=?
        ORDER BY l.loan_date DESC`, memberID)
	if err != nil {
		return nil, fmt.Errorf("list loan history: %w", err)
	}
	return loans, nil
}

// AllLoans returns every loan with member and book names, newest first.
func (lg *Ledger) AllLoans(ctx context.Context) ([]*LoanOverview, error) {
	var loans []*LoanOverview
	err := lg.db.SelectContext(ctx, &loans, `
        SELECT l.loan_id, l.book_id, l.member_id, l.loan_date, l.due_date,
               l.return_date, l.status, m.full_name AS member_name, b.title
        FROM loans l
        JOIN books b ON b.book_id = l.book_id
        JOIN members m ON m.member_id = l.member_id
        ORDER BY l.loan_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	return loans, nil
}

package library

import (
	"context"
	"log/slog"
)

// LibraryManager is a thin façade over the Database and Ledger,
// keeping CLI code simple.
type LibraryManager struct {
	db     *Database
	ledger *Ledger
}

// NewLibraryManager opens (or creates) the SQLite database at dbPath
// and wires the lending ledger over it. A nil logger disables logging.
func NewLibraryManager(dbPath string, log *slog.Logger) (*LibraryManager, error) {
	db, err := NewDatabase(dbPath)
	if err != nil {
		return nil, err
	}
	return &LibraryManager{db: db, ledger: NewLedger(db.db, log)}, nil
}

// Close closes the underlying database.
func (lm *LibraryManager) Close() error { return lm.db.Close() }

// Ledger exposes the lending ledger directly.
func (lm *LibraryManager) Ledger() *Ledger { return lm.ledger }

// ------------------ Circulation ------------------

func (lm *LibraryManager) Borrow(ctx context.Context, memberID, bookID int64) (*Loan, error) {
	return lm.ledger.Borrow(ctx, memberID, bookID)
}

func (lm *LibraryManager) Return(ctx context.Context, loanID int64) (*Loan, error) {
	return lm.ledger.Return(ctx, loanID)
}

func (lm *LibraryManager) AvailableCopies(ctx context.Context, bookID int64) (int, error) {
	return lm.ledger.AvailableCopies(ctx, bookID)
}

func (lm *LibraryManager) ActiveLoanCount(ctx context.Context, memberID int64) (int, error) {
	return lm.ledger.ActiveLoanCount(ctx, memberID)
}

func (lm *LibraryManager) OpenLoans(ctx context.Context, memberID int64) ([]*LoanDetail, error) {
	return lm.ledger.OpenLoans(ctx, memberID)
}

func (lm *LibraryManager) MemberLoanHistory(ctx context.Context, memberID int64) ([]*LoanDetail, error) {
	return lm.ledger.MemberLoanHistory(ctx, memberID)
}

func (lm *LibraryManager) AllLoans(ctx context.Context) ([]*LoanOverview, error) {
	return lm.ledger.AllLoans(ctx)
}

// ------------------ Catalog helpers ------------------

func (lm *LibraryManager) AddBook(ctx context.Context, title, isbn, author, category string, copies int) (int64, error) {
	return lm.db.AddBook(ctx, title, isbn, author, category, copies)
}

func (lm *LibraryManager) GetBook(ctx context.Context, id int64) (*Book, error) {
	return lm.db.GetBook(ctx, id)
}

func (lm *LibraryManager) ListBooks(ctx context.Context) ([]*Book, error) {
	return lm.db.ListBooks(ctx)
}

func (lm *LibraryManager) ListAvailableBooks(ctx context.Context) ([]*Book, error) {
	return lm.db.ListAvailableBooks(ctx)
}

func (lm *LibraryManager) UpdateBook(ctx context.Context, id int64, title, isbn, author, category string) error {
	return lm.db.UpdateBook(ctx, id, title, isbn, author, category)
}

func (lm *LibraryManager) SetCopiesTotal(ctx context.Context, id int64, newTotal int) error {
	return lm.db.SetCopiesTotal(ctx, id, newTotal)
}

func (lm *LibraryManager) DeleteBook(ctx context.Context, id int64) error {
	return lm.db.DeleteBook(ctx, id)
}

// ------------------ Accounts & members ------------------

func (lm *LibraryManager) CreateAccount(ctx context.Context, username, password, role, fullName string) (*User, error) {
	return lm.db.CreateAccount(ctx, username, password, role, fullName)
}

func (lm *LibraryManager) Authenticate(ctx context.Context, username, password string) (*User, error) {
	return lm.db.Authenticate(ctx, username, password)
}

func (lm *LibraryManager) MemberByUserID(ctx context.Context, userID int64) (*Member, error) {
	return lm.db.MemberByUserID(ctx, userID)
}

func (lm *LibraryManager) GetMember(ctx context.Context, id int64) (*Member, error) {
	return lm.db.GetMember(ctx, id)
}

func (lm *LibraryManager) ListMembers(ctx context.Context) ([]*Member, error) {
	return lm.db.ListMembers(ctx)
}

// ------------------ Book clubs ------------------

func (lm *LibraryManager) CreateClub(ctx context.Context, name, description string) (int64, error) {
	return lm.db.CreateClub(ctx, name, description)
}

func (lm *LibraryManager) DeleteClub(ctx context.Context, clubID int64) error {
	return lm.db.DeleteClub(ctx, clubID)
}

func (lm *LibraryManager) ListClubs(ctx context.Context) ([]*BookClub, error) {
	return lm.db.ListClubs(ctx)
}

func (lm *LibraryManager) JoinClub(ctx context.Context, clubID, memberID int64) (bool, error) {
	return lm.db.JoinClub(ctx, clubID, memberID)
}

func (lm *LibraryManager) LeaveClub(ctx context.Context, clubID, memberID int64) error {
	return lm.db.LeaveClub(ctx, clubID, memberID)
}

func (lm *LibraryManager) ClubMembers(ctx context.Context, clubID int64) ([]*Member, error) {
	return lm.db.ClubMembers(ctx, clubID)
}

func (lm *LibraryManager) MemberClubs(ctx context.Context, memberID int64) ([]*BookClub, error) {
	return lm.db.MemberClubs(ctx, memberID)
}

package library

import (
	"database/sql"
	"time"
)

// Loan lifecycle states. A loan starts as borrowed and transitions to
// returned exactly once; there are no further states.
const (
	StatusBorrowed = "borrowed"
	StatusReturned = "returned"
)

// Account roles.
const (
	RoleLibrarian = "librarian"
	RoleMember    = "member"
)

// Book is one catalog title. CopiesAvailable counts the currently
// lendable copies and is maintained exclusively by the Ledger, in
// lockstep with the book's open loans.
type Book struct {
	ID              int64  `db:"book_id" json:"id"`
	Title           string `db:"title" json:"title"`
	ISBN            string `db:"isbn" json:"isbn"`
	Author          string `db:"author" json:"author"`
	Category        string `db:"category" json:"category"`
	CopiesTotal     int    `db:"copies_total" json:"copies_total"`
	CopiesAvailable int    `db:"copies_available" json:"copies_available"`
}

// Member is a registered library member, linked to its login account.
type Member struct {
	ID       int64     `db:"member_id" json:"id"`
	UserID   int64     `db:"user_id" json:"user_id"`
	FullName string    `db:"full_name" json:"full_name"`
	JoinDate time.Time `db:"join_date" json:"join_date"`
	Username string    `db:"username" json:"username"`
}

// User is a login account. Librarians have no member record.
type User struct {
	ID           int64  `db:"user_id" json:"id"`
	Username     string `db:"username" json:"username"`
	PasswordHash string `db:"password_hash" json:"-"`
	Role         string `db:"role" json:"role"`
}

// Loan records one copy lent to one member for a bounded period.
// ReturnDate is null until the loan is returned; loans are never
// deleted, they are the durable lending history.
type Loan struct {
	ID         int64        `db:"loan_id" json:"id"`
	BookID     int64        `db:"book_id" json:"book_id"`
	MemberID   int64        `db:"member_id" json:"member_id"`
	LoanDate   time.Time    `db:"loan_date" json:"loan_date"`
	DueDate    time.Time    `db:"due_date" json:"due_date"`
	ReturnDate sql.NullTime `db:"return_date" json:"return_date"`
	Status     string       `db:"status" json:"status"`
}

// Open reports whether the loan is still outstanding.
func (l *Loan) Open() bool { return l.Status == StatusBorrowed }

// LoanDetail is a loan joined with its book title, for history views.
type LoanDetail struct {
	Loan
	Title string `db:"title" json:"title"`
}

// LoanOverview is the librarian's all-loans row: a loan joined with
// member name and book title.
type LoanOverview struct {
	Loan
	MemberName string `db:"member_name" json:"member_name"`
	Title      string `db:"title" json:"title"`
}

// BookClub is a reading group members can join.
type BookClub struct {
	ID          int64  `db:"club_id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
}

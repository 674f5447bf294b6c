package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Catalog CRUD. The catalog owns every book field except
// copies_available, which only moves here in lockstep with
// copies_total edits (same delta, same transaction).

// AddBook inserts a new title with the given copy count; all copies
// start available.
func (d *Database) AddBook(ctx context.Context, title, isbn, author, category string, copies int) (int64, error) {
	if strings.TrimSpace(title) == "" {
		return 0, fmt.Errorf("title cannot be empty")
	}
	if copies < 0 {
		return 0, fmt.Errorf("copies cannot be negative")
	}
	res, err := d.db.ExecContext(ctx,
		`INSERT INTO books(title, isbn, author, category, copies_total, copies_available)
         VALUES(?,?,?,?,?,?)`,
		title, isbn, author, category, copies, copies)
	if err != nil {
		return 0, fmt.Errorf("insert book: %w", err)
	}
	return res.LastInsertId()
}

// GetBook fetches a single book.
func (d *Database) GetBook(ctx context.Context, bookID int64) (*Book, error) {
	var b Book
	err := d.db.GetContext(ctx, &b,
		`SELECT book_id, title, isbn, author, category, copies_total, copies_available
         FROM books WHERE book_id=?`, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return &b, nil
}

// ListBooks returns the whole catalog ordered by title.
func (d *Database) ListBooks(ctx context.Context) ([]*Book, error) {
	var books []*Book
	err := d.db.SelectContext(ctx, &books,
		`SELECT book_id, title, isbn, author, category, copies_total, copies_available
         FROM books ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// ListAvailableBooks returns titles with at least one free copy.
func (d *Database) ListAvailableBooks(ctx context.Context) ([]*Book, error) {
	var books []*Book
	err := d.db.SelectContext(ctx, &books,
		`SELECT book_id, title, isbn, author, category, copies_total, copies_available
         FROM books WHERE copies_available > 0 ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list available books: %w", err)
	}
	return books, nil
}

// UpdateBook replaces a book's bibliographic fields. Copy counts are
// edited separately via SetCopiesTotal.
func (d *Database) UpdateBook(ctx context.Context, bookID int64, title, isbn, author, category string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title cannot be empty")
	}
	res, err := d.db.ExecContext(ctx,
		`UPDATE books SET title=?, isbn=?, author=?, category=? WHERE book_id=?`,
		title, isbn, author, category, bookID)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrBookNotFound
	}
	return nil
}

// SetCopiesTotal changes a book's copy count, shifting availability by
// the same delta so open loans stay accounted for. Shrinking below the
// number of copies currently out fails with ErrCopiesInUse.
func (d *Database) SetCopiesTotal(ctx context.Context, bookID int64, newTotal int) error {
	if newTotal < 0 {
		return fmt.Errorf("copies cannot be negative")
	}

	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin copy edit: %w", err)
	}
	defer tx.Rollback()

	var total, available int
	err = tx.QueryRowContext(ctx,
		`SELECT copies_total, copies_available FROM books WHERE book_id=?`, bookID).
		Scan(&total, &available)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBookNotFound
	}
	if err != nil {
		return fmt.Errorf("read copy counts: %w", err)
	}

	onLoan := total - available
	if newTotal < onLoan {
		return ErrCopiesInUse
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE books SET copies_total=?, copies_available=? WHERE book_id=?`,
		newTotal, newTotal-onLoan, bookID); err != nil {
		return fmt.Errorf("update copy counts: %w", err)
	}

	return tx.Commit()
}

// DeleteBook removes a title. Loans are never deleted, so a book with
// any loan on record (open or returned) cannot be removed.
func (d *Database) DeleteBook(ctx context.Context, bookID int64) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	var hasLoans bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM loans WHERE book_id=?)`, bookID).Scan(&hasLoans)
	if err != nil {
		return fmt.Errorf("check loans: %w", err)
	}
	if hasLoans {
		return ErrBookHasLoans
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM books WHERE book_id=?`, bookID)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrBookNotFound
	}

	return tx.Commit()
}

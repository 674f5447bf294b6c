package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Accounts and membership: login users plus the member directory the
// ledger reads from. Passwords are stored as bcrypt hashes only.

// CreateAccount registers a login. Member accounts also get a member
// row, created in the same transaction; fullName is ignored for
// librarians.
func (d *Database) CreateAccount(ctx context.Context, username, password, role, fullName string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username cannot be empty")
	}
	if password == "" {
		return nil, fmt.Errorf("password cannot be empty")
	}
	if role != RoleLibrarian && role != RoleMember {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	if role == RoleMember && strings.TrimSpace(fullName) == "" {
		return nil, fmt.Errorf("members must provide a full name")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin account: %w", err)
	}
	defer tx.Rollback()

	var taken bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username=?)`, username).Scan(&taken)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO users(username, password_hash, role) VALUES(?,?,?)`,
		username, string(hash), role)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	userID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}

	if role == RoleMember {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO members(user_id, full_name, join_date) VALUES(?,?,?)`,
			userID, strings.TrimSpace(fullName), time.Now().UTC()); err != nil {
			return nil, fmt.Errorf("insert member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit account: %w", err)
	}

	return &User{ID: userID, Username: username, Role: role}, nil
}

// Authenticate verifies a username/password pair. Any mismatch, unknown
// username included, reports ErrInvalidCredentials.
func (d *Database) Authenticate(ctx context.Context, username, password string) (*User, error) {
	var u User
	err := d.db.GetContext(ctx, &u,
		`SELECT user_id, username, password_hash, role FROM users WHERE username=?`,
		strings.TrimSpace(username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	u.PasswordHash = ""
	return &u, nil
}

// MemberByUserID resolves a login account to its member record.
func (d *Database) MemberByUserID(ctx context.Context, userID int64) (*Member, error) {
	var m Member
	err := d.db.GetContext(ctx, &m, `
        SELECT m.member_id, m.user_id, m.full_name, m.join_date, u.username
        FROM members m
        JOIN users u ON u.user_id = m.user_id
        WHERE m.user_id=?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return &m, nil
}

// GetMember fetches a single member.
func (d *Database) GetMember(ctx context.Context, memberID int64) (*Member, error) {
	var m Member
	err := d.db.GetContext(ctx, &m, `
        SELECT m.member_id, m.user_id, m.full_name, m.join_date, u.username
        FROM members m
        JOIN users u ON u.user_id = m.user_id
        WHERE m.member_id=?`, memberID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return &m, nil
}

// ListMembers returns the full roster ordered by member id.
func (d *Database) ListMembers(ctx context.Context) ([]*Member, error) {
	var members []*Member
	err := d.db.SelectContext(ctx, &members, `
        SELECT m.member_id, m.user_id, m.full_name, m.join_date, u.username
        FROM members m
        JOIN users u ON u.user_id = m.user_id
        ORDER BY m.member_id`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// MemberExists reports whether the member id is on the roster.
func (d *Database) MemberExists(ctx context.Context, memberID int64) (bool, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM members WHERE member_id=?)`, memberID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check member: %w", err)
	}
	return exists, nil
}

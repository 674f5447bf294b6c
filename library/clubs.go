package library

import (
	"context"
	"fmt"
	"strings"
)

// Book clubs: reading groups members can join and leave. Club
// membership has no effect on lending.

// CreateClub adds a new club. Names are unique.
func (d *Database) CreateClub(ctx context.Context, name, description string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("club name cannot be empty")
	}
	res, err := d.db.ExecContext(ctx,
		`INSERT INTO book_clubs(name, description) VALUES(?,?)`, name, strings.TrimSpace(description))
	if err != nil {
		return 0, fmt.Errorf("insert club: %w", err)
	}
	return res.LastInsertId()
}

// DeleteClub removes a club and, via cascade, its memberships.
func (d *Database) DeleteClub(ctx context.Context, clubID int64) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM book_clubs WHERE club_id=?`, clubID)
	if err != nil {
		return fmt.Errorf("delete club: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrClubNotFound
	}
	return nil
}

// ListClubs returns all clubs ordered by name.
func (d *Database) ListClubs(ctx context.Context) ([]*BookClub, error) {
	var clubs []*BookClub
	err := d.db.SelectContext(ctx, &clubs,
		`SELECT club_id, name, description FROM book_clubs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list clubs: %w", err)
	}
	return clubs, nil
}

// JoinClub adds the member to the club. Joining twice is not an error;
// the second call reports joined=false.
func (d *Database) JoinClub(ctx context.Context, clubID, memberID int64) (joined bool, err error) {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin join: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM book_clubs WHERE club_id=?)`, clubID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check club: %w", err)
	}
	if !exists {
		return false, ErrClubNotFound
	}

	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM members WHERE member_id=?)`, memberID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check member: %w", err)
	}
	if !exists {
		return false, ErrMemberNotFound
	}

	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM club_members WHERE club_id=? AND member_id=?)`,
		clubID, memberID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	if exists {
		return false, tx.Commit()
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO club_members(club_id, member_id) VALUES(?,?)`, clubID, memberID); err != nil {
		return false, fmt.Errorf("insert membership: %w", err)
	}

	return true, tx.Commit()
}

// LeaveClub removes the member from the club.
func (d *Database) LeaveClub(ctx context.Context, clubID, memberID int64) error {
	res, err := d.db.ExecContext(ctx,
		`DELETE FROM club_members WHERE club_id=? AND member_id=?`, clubID, memberID)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotClubMember
	}
	return nil
}

// ClubMembers returns the club's roster ordered by name.
func (d *Database) ClubMembers(ctx context.Context, clubID int64) ([]*Member, error) {
	var exists bool
	if err := d.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM book_clubs WHERE club_id=?)`, clubID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check club: %w", err)
	}
	if !exists {
		return nil, ErrClubNotFound
	}

	var members []*Member
	err := d.db.SelectContext(ctx, &members, `
        SELECT m.member_id, m.user_id, m.full_name, m.join_date, u.username
        FROM club_members cm
        JOIN members m ON m.member_id = cm.member_id
        JOIN users u ON u.user_id = m.user_id
        WHERE cm.club_id=?
        ORDER BY m.full_name`, clubID)
	if err != nil {
		return nil, fmt.Errorf("list club members: %w", err)
	}
	return members, nil
}

// MemberClubs returns the clubs the member belongs to, ordered by name.
func (d *Database) MemberClubs(ctx context.Context, memberID int64) ([]*BookClub, error) {
	var clubs []*BookClub
	err := d.db.SelectContext(ctx, &clubs, `
        SELECT bc.club_id, bc.name, bc.description
        FROM club_members cm
        JOIN book_clubs bc ON bc.club_id = cm.club_id
        WHERE cm.member_id=?
        ORDER BY bc.name`, memberID)
	if err != nil {
		return nil, fmt.Errorf("list member clubs: %w", err)
	}
	return clubs, nil
}

// Command seed_demo resets the database and loads a small demo data set:
// a librarian account, two members, a shelf of books and one book club.
// Useful for trying out the interactive shell without typing everything in.
package main

import (
	"context"
	"fmt"
	"os"

	"smartlibrary/internal/config"
	"smartlibrary/library"
)

type demoBook struct {
	title    string
	isbn     string
	author   string
	category string
	copies   int
}

var demoBooks = []demoBook{
	{"The Go Programming Language", "978-0134190440", "Donovan & Kernighan", "programming", 3},
	{"Dune", "978-0441172719", "Frank Herbert", "sci-fi", 2},
	{"The Left Hand of Darkness", "978-0441478125", "Ursula K. Le Guin", "sci-fi", 1},
	{"Thinking, Fast and Slow", "978-0374533557", "Daniel Kahneman", "psychology", 2},
	{"A Pattern Language", "978-0195019193", "Christopher Alexander", "architecture", 1},
	{"The Pragmatic Programmer", "978-0135957059", "Hunt & Thomas", "programming", 2},
}

func main() {
	cfg := config.Load()

	// Start from a clean slate, WAL sidecars included.
	for _, suffix := range []string{"", "-shm", "-wal"} {
		os.Remove(cfg.DBPath + suffix)
	}

	mgr, err := library.NewLibraryManager(cfg.DBPath, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer mgr.Close()

	ctx := context.Background()

	if _, err := mgr.CreateAccount(ctx, "admin", "admin", library.RoleLibrarian, ""); err != nil {
		fail("create librarian", err)
	}

	memberIDs := make(map[string]int64)
	for _, m := range []struct{ username, fullName string }{
		{"alice", "Alice Anders"},
		{"bob", "Bob Brighton"},
	} {
		user, err := mgr.CreateAccount(ctx, m.username, m.username, library.RoleMember, m.fullName)
		if err != nil {
			fail("create member "+m.username, err)
		}
		member, err := mgr.MemberByUserID(ctx, user.ID)
		if err != nil {
			fail("look up member "+m.username, err)
		}
		memberIDs[m.username] = member.ID
	}

	bookIDs := make([]int64, 0, len(demoBooks))
	for _, b := range demoBooks {
		id, err := mgr.AddBook(ctx, b.title, b.isbn, b.author, b.category, b.copies)
		if err != nil {
			fail("add book "+b.title, err)
		}
		bookIDs = append(bookIDs, id)
	}

	clubID, err := mgr.CreateClub(ctx, "Sci-Fi Circle", "Weekly science fiction discussions")
	if err != nil {
		fail("create club", err)
	}
	if _, err := mgr.JoinClub(ctx, clubID, memberIDs["alice"]); err != nil {
		fail("join club", err)
	}

	// One open loan so the loan views have something to show.
	if _, err := mgr.Borrow(ctx, memberIDs["alice"], bookIDs[1]); err != nil {
		fail("seed loan", err)
	}

	fmt.Printf("Seeded %s:\n", cfg.DBPath)
	fmt.Printf("  %d books, 2 members (alice, bob), 1 librarian (admin), 1 club\n", len(demoBooks))
	fmt.Println("  all passwords equal the username")
}

func fail(what string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", what, err)
	os.Exit(1)
}

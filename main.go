package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"syscall"

	"smartlibrary/internal/config"
	"smartlibrary/library"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dbPath string

	root := &cobra.Command{
		Use:   "smartlibrary",
		Short: "University library circulation system",
		Long: "Smart Library: manage the catalog, members and book clubs, " +
			"and lend books under the 3-loan / 14-day policy.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager(dbPath)
			if err != nil {
				return err
			}
			defer mgr.Close()
			return runShell(mgr)
		},
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "", "path to the SQLite database (overrides SMARTLIBRARY_DB)")

	root.AddCommand(newBorrowCmd(&dbPath))
	root.AddCommand(newReturnCmd(&dbPath))
	root.AddCommand(newBooksCmd(&dbPath))
	root.AddCommand(newLoansCmd(&dbPath))
	return root
}

func openManager(dbPath string) (*library.LibraryManager, error) {
	cfg := config.Load()
	if dbPath == "" {
		dbPath = cfg.DBPath
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	mgr, err := library.NewLibraryManager(dbPath, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return mgr, nil
}

// ---------------------------------------------------------------------------
// Scripting subcommands
// ---------------------------------------------------------------------------

func newBorrowCmd(dbPath *string) *cobra.Command {
	var memberID, bookID int64
	cmd := &cobra.Command{
		Use:   "borrow",
		Short: "Lend a copy of a book to a member",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager(*dbPath)
			if err != nil {
				return err
			}
			defer mgr.Close()

			loan, err := mgr.Borrow(context.Background(), memberID, bookID)
			if err != nil {
				return errors.New(friendlyError(err))
			}
			fmt.Printf("Loan %d created, due %s\n", loan.ID, loan.DueDate.Format("2006-01-02"))
			return nil
		},
	}
	cmd.Flags().Int64Var(&memberID, "member", 0, "member id")
	cmd.Flags().Int64Var(&bookID, "book", 0, "book id")
	cmd.MarkFlagRequired("member")
	cmd.MarkFlagRequired("book")
	return cmd
}

func newReturnCmd(dbPath *string) *cobra.Command {
	var loanID int64
	cmd := &cobra.Command{
		Use:   "return",
		Short: "Return an open loan",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager(*dbPath)
			if err != nil {
				return err
			}
			defer mgr.Close()

			loan, err := mgr.Return(context.Background(), loanID)
			if err != nil {
				return errors.New(friendlyError(err))
			}
			fmt.Printf("Loan %d returned (book %d)\n", loan.ID, loan.BookID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&loanID, "loan", 0, "loan id")
	cmd.MarkFlagRequired("loan")
	return cmd
}

func newBooksCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "books",
		Short: "List the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager(*dbPath)
			if err != nil {
				return err
			}
			defer mgr.Close()

			books, err := mgr.ListBooks(context.Background())
			if err != nil {
				return err
			}
			printBooks(books)
			return nil
		},
	}
}

func newLoansCmd(dbPath *string) *cobra.Command {
	var memberID int64
	cmd := &cobra.Command{
		Use:   "loans",
		Short: "List loans, optionally for one member",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager(*dbPath)
			if err != nil {
				return err
			}
			defer mgr.Close()
			ctx := context.Background()

			if memberID != 0 {
				loans, err := mgr.MemberLoanHistory(ctx, memberID)
				if err != nil {
					return err
				}
				printLoanDetails(loans)
				return nil
			}
			loans, err := mgr.AllLoans(ctx)
			if err != nil {
				return err
			}
			printLoanOverviews(loans)
			return nil
		},
	}
	cmd.Flags().Int64Var(&memberID, "member", 0, "member id (all members if omitted)")
	return cmd
}

// ---------------------------------------------------------------------------
// Interactive shell
// ---------------------------------------------------------------------------

func runShell(mgr *library.LibraryManager) error {
	sc := bufio.NewScanner(os.Stdin)
	fmt.Println("Welcome to the Smart Library!")

	user, err := loginLoop(sc, mgr)
	if err != nil || user == nil {
		return err
	}

	if user.Role == library.RoleLibrarian {
		fmt.Printf("Logged in as librarian %s.\n", user.Username)
		librarianShell(sc, mgr)
		return nil
	}

	member, err := mgr.MemberByUserID(context.Background(), user.ID)
	if err != nil {
		return fmt.Errorf("member record not found for this account: %w", err)
	}
	fmt.Printf("Logged in as %s (member ID %d).\n", member.FullName, member.ID)
	memberShell(sc, mgr, member)
	return nil
}

func loginLoop(sc *bufio.Scanner, mgr *library.LibraryManager) (*library.User, error) {
	ctx := context.Background()
	for {
		fmt.Print("\n[l]ogin, [c]reate account, or [q]uit: ")
		if !sc.Scan() {
			return nil, nil
		}
		switch strings.ToLower(strings.TrimSpace(sc.Text())) {
		case "l", "login":
			username := promptLine(sc, "Username: ")
			password, err := readPassword("Password: ")
			if err != nil {
				fmt.Printf("Error reading password: %v\n", err)
				continue
			}
			user, err := mgr.Authenticate(ctx, username, password)
			if err != nil {
				fmt.Println(friendlyError(err))
				continue
			}
			return user, nil
		case "c", "create":
			username := promptLine(sc, "Username: ")
			role := library.RoleMember
			if strings.EqualFold(promptLine(sc, "Role (member/librarian): "), library.RoleLibrarian) {
				role = library.RoleLibrarian
			}
			fullName := ""
			if role == library.RoleMember {
				fullName = promptLine(sc, "Full name: ")
			}
			password, err := readPassword("Password: ")
			if err != nil {
				fmt.Printf("Error reading password: %v\n", err)
				continue
			}
			user, err := mgr.CreateAccount(ctx, username, password, role, fullName)
			if err != nil {
				fmt.Println(friendlyError(err))
				continue
			}
			fmt.Println("Account created.")
			return user, nil
		case "q", "quit", "exit":
			return nil, nil
		default:
			fmt.Println("Unknown choice.")
		}
	}
}

func memberShell(sc *bufio.Scanner, mgr *library.LibraryManager, member *library.Member) {
	fmt.Println("Commands: books, borrow, return, my loans, history, clubs, my clubs, join club, leave club, exit")
	ctx := context.Background()

	for {
		fmt.Print("\n> ")
		if !sc.Scan() {
			return
		}
		switch strings.TrimSpace(sc.Text()) {
		case "books":
			books, err := mgr.ListAvailableBooks(ctx)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			printBooks(books)
		case "borrow":
			bookID, ok := promptInt64(sc, "Book ID: ")
			if !ok {
				continue
			}
			loan, err := mgr.Borrow(ctx, member.ID, bookID)
			if err != nil {
				fmt.Println(friendlyError(err))
				continue
			}
			fmt.Printf("Borrowed. Loan %d is due %s.\n", loan.ID, loan.DueDate.Format("2006-01-02"))
		case "return":
			loanID, ok := promptInt64(sc, "Loan ID: ")
			if !ok {
				continue
			}
			loan, err := mgr.Return(ctx, loanID)
			if err != nil {
				fmt.Println(friendlyError(err))
				continue
			}
			fmt.Printf("Returned book %d. Thank you!\n", loan.BookID)
		case "my loans":
			loans, err := mgr.OpenLoans(ctx, member.ID)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			printLoanDetails(loans)
		case "history":
			loans, err := mgr.MemberLoanHistory(ctx, member.ID)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			printLoanDetails(loans)
		case "clubs":
			listClubs(mgr)
		case "my clubs":
			clubs, err := mgr.MemberClubs(ctx, member.ID)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			printClubs(clubs)
		case "join club":
			clubID, ok := promptInt64(sc, "Club ID: ")
			if !ok {
				continue
			}
			joined, err := mgr.JoinClub(ctx, clubID, member.ID)
			if err != nil {
				fmt.Println(friendlyError(err))
				continue
			}
			if joined {
				fmt.Println("Joined club.")
			} else {
				fmt.Println("Already a member of this club.")
			}
		case "leave club":
			clubID, ok := promptInt64(sc, "Club ID: ")
			if !ok {
				continue
			}
			if err := mgr.LeaveClub(ctx, clubID, member.ID); err != nil {
				fmt.Println(friendlyError(err))
				continue
			}
			fmt.Println("Left club.")
		case "exit", "quit", "logout":
			fmt.Println("Goodbye!")
			return
		default:
			fmt.Println("Unknown command. Type one of the commands listed above.")
		}
	}
}

func librarianShell(sc *bufio.Scanner, mgr *library.LibraryManager) {
	fmt.Println("Commands: add book, edit book, set copies, delete book, list books,")
	fmt.Println("          list members, member loans, all loans,")
	fmt.Println("          clubs, create club, delete club, club members, exit")
	ctx := context.Background()

	for {
		fmt.Print("\n> ")
		if !sc.Scan() {
			return
		}
		switch strings.TrimSpace(sc.Text()) {
		case "add book":
			title := promptLine(sc, "Title: ")
			isbn := promptLine(sc, "ISBN: ")
			author := promptLine(sc, "Author: ")
			category := promptLine(sc, "Category: ")
			copies, ok := promptInt(sc, "Copies: ")
			if !ok {
				continue
			}
			id, err := mgr.AddBook(ctx, title, isbn, author, category, copies)
			if err != nil {
				fmt.Printf("Error adding book: %v\n", err)
				continue
			}
			fmt.Printf("Added book ID %d with %d copies.\n", id, copies)
		case "edit book":
			bookID, ok := promptInt64(sc, "Book ID: ")
			if !ok {
				continue
			}
			book, err := mgr.GetBook(ctx, bookID)
			if err != nil {
				fmt.Println(friendlyError(err))
				continue
			}
			title := defaulted(promptLine(sc, fmt.Sprintf("Title [%s]: ", book.Title)), book.Title)
			isbn := defaulted(promptLine(sc, fmt.Sprintf("ISBN [%s]: ", book.ISBN)), book.ISBN)
			author := defaulted(promptLine(sc, fmt.Sprintf("Author [%s]: ", book.Author)), book.Author)
			category := defaulted(promptLine(sc, fmt.Sprintf("Category [%s]: ", book.Category)), book.Category)
			if err := mgr.UpdateBook(ctx, bookID, title, isbn, author, category); err != nil {
				fmt.Println(friendlyError(err))
				continue
			}
			fmt.Println("Book updated.")
		case "set copies":
			bookID, ok := promptInt64(sc, "Book ID: ")
			if !ok {
				continue
			}
			total, ok := promptInt(sc, "New total copies: ")
			if !ok {
				continue
			}
			if err := mgr.SetCopiesTotal(ctx, bookID, total); err != nil {
				fmt.Println(friendlyError(err))
				continue
			}
			fmt.Println("Copy count updated.")
		case "delete book":
			bookID, ok := promptInt64(sc, "Book ID: ")
			if !ok {
				continue
			}
			if err := mgr.DeleteBook(ctx, bookID); err != nil {
				fmt.Println(friendlyError(err))
				continue
			}
			fmt.Println("Book deleted.")
		case "list books":
			books, err := mgr.ListBooks(ctx)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			printBooks(books)
		case "list members":
			members, err := mgr.ListMembers(ctx)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			printMembers(members)
		case "member loans":
			memberID, ok := promptInt64(sc, "Member ID: ")
			if !ok {
				continue
			}
			loans, err := mgr.MemberLoanHistory(ctx, memberID)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			printLoanDetails(loans)
		case "all loans":
			loans, err := mgr.AllLoans(ctx)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			printLoanOverviews(loans)
		case "clubs":
			listClubs(mgr)
		case "create club":
			name := promptLine(sc, "Club name: ")
			desc := promptLine(sc, "Description (optional): ")
			id, err := mgr.CreateClub(ctx, name, desc)
			if err != nil {
				fmt.Printf("Error creating club: %v\n", err)
				continue
			}
			fmt.Printf("Created club ID %d.\n", id)
		case "delete club":
			clubID, ok := promptInt64(sc, "Club ID: ")
			if !ok {
				continue
			}
			if err := mgr.DeleteClub(ctx, clubID); err != nil {
				fmt.Println(friendlyError(err))
				continue
			}
			fmt.Println("Club deleted.")
		case "club members":
			clubID, ok := promptInt64(sc, "Club ID: ")
			if !ok {
				continue
			}
			members, err := mgr.ClubMembers(ctx, clubID)
			if err != nil {
				fmt.Println(friendlyError(err))
				continue
			}
			printMembers(members)
		case "exit", "quit", "logout":
			fmt.Println("Goodbye!")
			return
		default:
			fmt.Println("Unknown command. Type one of the commands listed above.")
		}
	}
}

// ---------------------------------------------------------------------------
// Prompt helpers
// ---------------------------------------------------------------------------

// readPassword securely reads a password with masking.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(bytePassword)), nil
}

func promptLine(sc *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !sc.Scan() {
		return ""
	}
	return strings.TrimSpace(sc.Text())
}

func promptInt64(sc *bufio.Scanner, label string) (int64, bool) {
	raw := promptLine(sc, label)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		fmt.Printf("Invalid number: %s\n", raw)
		return 0, false
	}
	return v, true
}

func promptInt(sc *bufio.Scanner, label string) (int, bool) {
	v, ok := promptInt64(sc, label)
	return int(v), ok
}

func defaulted(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func listClubs(mgr *library.LibraryManager) {
	clubs, err := mgr.ListClubs(context.Background())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	printClubs(clubs)
}

// friendlyError maps ledger failures to the messages the original UI showed.
func friendlyError(err error) string {
	switch {
	case errors.Is(err, library.ErrNoCopiesAvailable):
		return "No copies available"
	case errors.Is(err, library.ErrBorrowLimitExceeded):
		return fmt.Sprintf("You cannot borrow more than %d books at a time", library.MaxActiveLoans)
	case errors.Is(err, library.ErrLoanNotOpen):
		return "That loan does not exist or was already returned"
	case errors.Is(err, library.ErrBookNotFound):
		return "Book not found"
	case errors.Is(err, library.ErrMemberNotFound):
		return "Member not found"
	case errors.Is(err, library.ErrBookHasLoans):
		return "Book has loans on record and cannot be deleted"
	case errors.Is(err, library.ErrCopiesInUse):
		return "Cannot shrink below the number of copies currently out on loan"
	case errors.Is(err, library.ErrUsernameTaken):
		return "Username already exists"
	case errors.Is(err, library.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, library.ErrClubNotFound):
		return "Book club not found"
	case errors.Is(err, library.ErrNotClubMember):
		return "Not a member of this club"
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Table printers
// ---------------------------------------------------------------------------

func printBooks(books []*library.Book) {
	if len(books) == 0 {
		fmt.Println("No books.")
		return
	}
	fmt.Printf("%-5s %-35s %-25s %-15s %-6s %-9s\n", "ID", "Title", "Author", "Category", "Total", "Available")
	fmt.Println(strings.Repeat("-", 100))
	for _, b := range books {
		fmt.Printf("%-5d %-35s %-25s %-15s %-6d %-9d\n",
			b.ID, truncateString(b.Title, 35), truncateString(b.Author, 25),
			truncateString(b.Category, 15), b.CopiesTotal, b.CopiesAvailable)
	}
}

func printMembers(members []*library.Member) {
	if len(members) == 0 {
		fmt.Println("No members.")
		return
	}
	fmt.Printf("%-5s %-20s %-30s %-12s\n", "ID", "Username", "Full Name", "Joined")
	fmt.Println(strings.Repeat("-", 70))
	for _, m := range members {
		fmt.Printf("%-5d %-20s %-30s %-12s\n",
			m.ID, truncateString(m.Username, 20), truncateString(m.FullName, 30),
			m.JoinDate.Format("2006-01-02"))
	}
}

func printLoanDetails(loans []*library.LoanDetail) {
	if len(loans) == 0 {
		fmt.Println("No loans.")
		return
	}
	fmt.Printf("%-5s %-35s %-12s %-12s %-12s %-9s\n", "ID", "Title", "Loaned", "Due", "Returned", "Status")
	fmt.Println(strings.Repeat("-", 90))
	for _, l := range loans {
		returned := "-"
		if l.ReturnDate.Valid {
			returned = l.ReturnDate.Time.Format("2006-01-02")
		}
		fmt.Printf("%-5d %-35s %-12s %-12s %-12s %-9s\n",
			l.ID, truncateString(l.Title, 35),
			l.LoanDate.Format("2006-01-02"), l.DueDate.Format("2006-01-02"),
			returned, l.Status)
	}
}

func printLoanOverviews(loans []*library.LoanOverview) {
	if len(loans) == 0 {
		fmt.Println("No loans.")
		return
	}
	fmt.Printf("%-5s %-25s %-35s %-12s %-9s\n", "ID", "Member", "Title", "Due", "Status")
	fmt.Println(strings.Repeat("-", 92))
	for _, l := range loans {
		fmt.Printf("%-5d %-25s %-35s %-12s %-9s\n",
			l.ID, truncateString(l.MemberName, 25), truncateString(l.Title, 35),
			l.DueDate.Format("2006-01-02"), l.Status)
	}
}

func printClubs(clubs []*library.BookClub) {
	if len(clubs) == 0 {
		fmt.Println("No clubs.")
		return
	}
	fmt.Printf("%-5s %-25s %-45s\n", "ID", "Name", "Description")
	fmt.Println(strings.Repeat("-", 77))
	for _, c := range clubs {
		fmt.Printf("%-5d %-25s %-45s\n",
			c.ID, truncateString(c.Name, 25), truncateString(c.Description, 45))
	}
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return s[:maxLength]
	}
	return s[:maxLength-3] + "..."
}

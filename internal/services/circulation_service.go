package services

import (
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"library/internal/models"
	"library/internal/repositories"
)

// Result is the tagged outcome every public circulation operation returns.
// Failures carry a human-readable reason instead of an error value; nothing
// in this layer panics or leaks store internals past the boundary.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func failure(message string) Result {
	return Result{Success: false, Message: message}
}

func success(message string) Result {
	return Result{Success: true, Message: message}
}

var patronIDPattern = regexp.MustCompile(`^[0-9]{6}$`)
var isbnPattern = regexp.MustCompile(`^[0-9]{13}$`)

const msgInvalidPatronID = "Invalid patron ID. Must be exactly 6 digits."

// CirculationService enforces the circulation business rules: catalog
// additions, search, borrowing limits, returns, and patron reporting.
type CirculationService interface {
	AddBook(title, author, isbn string, totalCopies int) Result
	SearchBooks(query, field string) ([]models.Book, error)
	ListBooks() ([]models.Book, error)
	BorrowBook(patronID string, bookID uint) Result
	ReturnBook(patronID string, bookID uint) Result
	// CalculateLateFee returns the fee owed on the active loan for (patron,
	// book), or nil when no such loan exists.
	CalculateLateFee(patronID string, bookID uint) (*models.FeeInfo, error)
	GetPatronStatusReport(patronID string) (*models.PatronStatusReport, error)
}

type circulationService struct {
	store repositories.CatalogStore
}

// NewCirculationService wires the circulation engine to its catalog store.
func NewCirculationService(store repositories.CatalogStore) CirculationService {
	return &circulationService{store: store}
}

// AddBook validates the submitted catalog entry and inserts it with every
// copy available. Guards run in order; the first failure wins.
func (s *circulationService) AddBook(title, author, isbn string, totalCopies int) Result {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)

	if title == "" {
		return failure("Title is required.")
	}
	if len(title) > 200 {
		return failure("Title must be less than 200 characters.")
	}
	if author == "" {
		return failure("Author is required.")
	}
	if len(author) > 100 {
		return failure("Author must be less than 100 characters.")
	}
	if !isbnPattern.MatchString(isbn) {
		return failure("ISBN must be exactly 13 digits.")
	}
	if totalCopies <= 0 {
		return failure("Total copies must be a positive integer.")
	}

	existing, err := s.store.GetBookByISBN(isbn)
	if err != nil {
		log.Printf("[ERROR] AddBook: ISBN lookup failed: %v", err)
		return failure("Failed to add book to catalog.")
	}
	if existing != nil {
		return failure("A book with this ISBN already exists.")
	}

	book := &models.Book{
		Title:           title,
		Author:          author,
		ISBN:            isbn,
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies,
	}
	if err := s.store.InsertBook(book); err != nil {
		log.Printf("[ERROR] AddBook: insert failed for ISBN %s: %v", isbn, err)
		return failure("Failed to add book to catalog.")
	}

	log.Printf("[INFO] AddBook: added %q (id=%d, copies=%d)", book.Title, book.ID, totalCopies)
	return success(fmt.Sprintf("Book '%s' added successfully to the catalog.", title))
}

// SearchBooks matches title/author by case-insensitive substring and isbn by
// exact full string. Any other field is an empty result, not an error.
func (s *circulationService) SearchBooks(query, field string) ([]models.Book, error) {
	switch field {
	case "title", "author", "isbn":
		return s.store.SearchBooks(query, field)
	default:
		return []models.Book{}, nil
	}
}

func (s *circulationService) ListBooks() ([]models.Book, error) {
	return s.store.GetAllBooks()
}

// BorrowBook lends a book to a patron: patron id format, book existence,
// availability, and the borrowing limit are hard gates, then the borrow
// record and the availability decrement commit as one transaction.
func (s *circulationService) BorrowBook(patronID string, bookID uint) Result {
	if !patronIDPattern.MatchString(patronID) {
		return failure(msgInvalidPatronID)
	}

	book, err := s.store.GetBookByID(bookID)
	if err != nil {
		log.Printf("[ERROR] BorrowBook: book lookup failed for id %d: %v", bookID, err)
		return failure("Failed to process borrow request.")
	}
	if book == nil {
		return failure("Book not found.")
	}
	if book.AvailableCopies <= 0 {
		return failure(fmt.Sprintf("Book '%s' is currently not available.", book.Title))
	}

	count, err := s.store.GetPatronBorrowCount(patronID)
	if err != nil {
		log.Printf("[ERROR] BorrowBook: loan count failed for patron %s: %v", patronID, err)
		return failure("Failed to process borrow request.")
	}
	if count >= MaxActiveLoans {
		return failure(fmt.Sprintf("Patron has reached the maximum borrowing limit of %d books.", MaxActiveLoans))
	}

	now := time.Now().UTC()
	due := now.AddDate(0, 0, LoanPeriodDays)
	record := &models.BorrowRecord{
		PatronID:   patronID,
		BookID:     bookID,
		BorrowDate: now,
		DueDate:    due,
	}

	err = s.store.Transaction(func(tx repositories.CatalogStore) error {
		if err := tx.InsertBorrowRecord(record); err != nil {
			return err
		}
		return tx.UpdateBookAvailability(bookID, -1)
	})
	if err != nil {
		log.Printf("[ERROR] BorrowBook: transaction failed for patron %s / book %d: %v", patronID, bookID, err)
		return failure("Failed to create borrow record.")
	}

	log.Printf("[INFO] BorrowBook: patron %s borrowed book %d, due %s", patronID, bookID, due.Format("2006-01-02"))
	return success(fmt.Sprintf("Successfully borrowed '%s'. Due date: %s.", book.Title, due.Format("2006-01-02")))
}

// ReturnBook closes the patron's active loan on the book. Only the borrower
// may return it, and only once: the second attempt finds no active record.
func (s *circulationService) ReturnBook(patronID string, bookID uint) Result {
	if !patronIDPattern.MatchString(patronID) {
		return failure(msgInvalidPatronID)
	}

	record, err := s.store.GetActiveBorrowRecord(patronID, bookID)
	if err != nil {
		log.Printf("[ERROR] ReturnBook: record lookup failed for patron %s / book %d: %v", patronID, bookID, err)
		return failure("Failed to process return request.")
	}
	if record == nil {
		return failure("No active borrow record found for this patron and book.")
	}

	book, err := s.store.GetBookByID(bookID)
	if err != nil {
		log.Printf("[ERROR] ReturnBook: book lookup failed for id %d: %v", bookID, err)
		return failure("Failed to process return request.")
	}
	if book == nil {
		log.Printf("[WARN] ReturnBook: active record %d references missing book %d", record.ID, bookID)
		return failure("Failed to process return request.")
	}

	returnedAt := time.Now().UTC()
	err = s.store.Transaction(func(tx repositories.CatalogStore) error {
		if err := tx.SetReturnDate(record.ID, returnedAt); err != nil {
			return err
		}
		return tx.UpdateBookAvailability(bookID, +1)
	})
	if err != nil {
		log.Printf("[ERROR] ReturnBook: transaction failed for record %d: %v", record.ID, err)
		return failure("Failed to process return request.")
	}

	fee := ComputeLateFee(record.DueDate, returnedAt)
	log.Printf("[INFO] ReturnBook: patron %s returned book %d (%d days overdue, fee $%.2f)",
		patronID, bookID, fee.DaysOverdue, fee.FeeAmount)

	if fee.DaysOverdue > 0 {
		return success(fmt.Sprintf("Successfully returned '%s'. Book was %d days overdue. Late fee: $%.2f.",
			book.Title, fee.DaysOverdue, fee.FeeAmount))
	}
	return success(fmt.Sprintf("Successfully returned '%s'.", book.Title))
}

// CalculateLateFee computes the fee currently owed on the patron's active
// loan of the book. No active loan means no computable fee (nil, nil).
func (s *circulationService) CalculateLateFee(patronID string, bookID uint) (*models.FeeInfo, error) {
	record, err := s.store.GetActiveBorrowRecord(patronID, bookID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	fee := ComputeLateFee(record.DueDate, time.Now().UTC())
	return &fee, nil
}

// GetPatronStatusReport aggregates a patron's active loans, fees owed, and
// full borrowing history. An unknown patron gets an empty report.
func (s *circulationService) GetPatronStatusReport(patronID string) (*models.PatronStatusReport, error) {
	records, err := s.store.GetAllBorrowRecords(patronID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	report := &models.PatronStatusReport{
		PatronID:         patronID,
		CurrentLoans:     []models.CurrentLoan{},
		BorrowingHistory: records,
	}

	var total float64
	for _, record := range records {
		if record.ReturnDate != nil {
			continue
		}
		fee := ComputeLateFee(record.DueDate, now)
		report.CurrentLoans = append(report.CurrentLoans, models.CurrentLoan{
			RecordID:    record.ID,
			BookID:      record.BookID,
			BorrowDate:  record.BorrowDate,
			DueDate:     record.DueDate,
			DaysOverdue: fee.DaysOverdue,
			FeeAmount:   fee.FeeAmount,
		})
		total += fee.FeeAmount
	}

	report.NumBooksCurrentlyBorrowed = len(report.CurrentLoans)
	report.TotalLateFeesOwed = roundToCents(total)
	return report, nil
}

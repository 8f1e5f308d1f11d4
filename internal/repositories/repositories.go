package repositories

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"library/internal/models"
)

var (
	// ErrAvailabilityConflict is returned when an availability update would
	// push available_copies below zero or above total_copies. The guarded
	// UPDATE simply matches no row in that case.
	ErrAvailabilityConflict = errors.New("availability update rejected: out of range")

	// ErrRecordAlreadyClosed is returned when SetReturnDate targets a borrow
	// record whose return_date is already set.
	ErrRecordAlreadyClosed = errors.New("borrow record already closed")
)

// CatalogStore is the persistence contract the circulation core consumes.
// Lookups return (nil, nil) when the entity does not exist; a non-nil error
// always means a store fault, never a missing row.
type CatalogStore interface {
	GetBookByID(id uint) (*models.Book, error)
	GetBookByISBN(isbn string) (*models.Book, error)
	GetAllBooks() ([]models.Book, error)
	InsertBook(book *models.Book) error
	// UpdateBookAvailability adjusts available_copies by delta, refusing any
	// change that would leave the count outside [0, total_copies].
	UpdateBookAvailability(bookID uint, delta int) error
	// SearchBooks matches title/author by case-insensitive substring and isbn
	// by exact full-string equality. Unsupported fields yield an empty list.
	SearchBooks(query, field string) ([]models.Book, error)

	InsertBorrowRecord(record *models.BorrowRecord) error
	GetActiveBorrowRecord(patronID string, bookID uint) (*models.BorrowRecord, error)
	// SetReturnDate closes an open borrow record. Closing an already-closed
	// record fails with ErrRecordAlreadyClosed.
	SetReturnDate(recordID uint, returnDate time.Time) error
	GetPatronBorrowCount(patronID string) (int, error)
	GetAllBorrowRecords(patronID string) ([]models.BorrowRecord, error)

	// Transaction runs fn against a transaction-scoped store. Everything fn
	// does commits or rolls back as one unit.
	Transaction(fn func(tx CatalogStore) error) error
}

type catalogStore struct {
	db *gorm.DB
}

// NewCatalogStore returns a CatalogStore backed by the given gorm connection.
func NewCatalogStore(db *gorm.DB) CatalogStore {
	return &catalogStore{db: db}
}

func (s *catalogStore) Transaction(fn func(tx CatalogStore) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&catalogStore{db: tx})
	})
}

func (s *catalogStore) GetBookByID(id uint) (*models.Book, error) {
	var book models.Book
	if err := s.db.First(&book, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get book by id")
	}
	return &book, nil
}

func (s *catalogStore) GetBookByISBN(isbn string) (*models.Book, error) {
	var book models.Book
	if err := s.db.First(&book, "isbn = ?", isbn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get book by isbn")
	}
	return &book, nil
}

func (s *catalogStore) GetAllBooks() ([]models.Book, error) {
	var books []models.Book
	if err := s.db.Order("id").Find(&books).Error; err != nil {
		return nil, errors.Wrap(err, "list books")
	}
	return books, nil
}

func (s *catalogStore) InsertBook(book *models.Book) error {
	return errors.Wrap(s.db.Create(book).Error, "insert book")
}

func (s *catalogStore) UpdateBookAvailability(bookID uint, delta int) error {
	res := s.db.Model(&models.Book{}).
		Where("id = ? AND available_copies + ? >= 0 AND available_copies + ? <= total_copies",
			bookID, delta, delta).
		UpdateColumn("available_copies", gorm.Expr("available_copies + ?", delta))
	if res.Error != nil {
		return errors.Wrap(res.Error, "update availability")
	}
	if res.RowsAffected == 0 {
		return ErrAvailabilityConflict
	}
	return nil
}

func (s *catalogStore) SearchBooks(query, field string) ([]models.Book, error) {
	var books []models.Book
	tx := s.db.Order("id")
	switch field {
	case "title":
		tx = tx.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(query)+"%")
	case "author":
		tx = tx.Where("LOWER(author) LIKE ?", "%"+strings.ToLower(query)+"%")
	case "isbn":
		// Exact match only: partial or hyphenated ISBNs must never match.
		tx = tx.Where("isbn = ?", query)
	default:
		return []models.Book{}, nil
	}
	if err := tx.Find(&books).Error; err != nil {
		return nil, errors.Wrap(err, "search books")
	}
	return books, nil
}

func (s *catalogStore) InsertBorrowRecord(record *models.BorrowRecord) error {
	return errors.Wrap(s.db.Create(record).Error, "insert borrow record")
}

func (s *catalogStore) GetActiveBorrowRecord(patronID string, bookID uint) (*models.BorrowRecord, error) {
	var record models.BorrowRecord
	err := s.db.
		Where("patron_id = ? AND book_id = ? AND return_date IS NULL", patronID, bookID).
		Order("borrow_date").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get active borrow record")
	}
	return &record, nil
}

func (s *catalogStore) SetReturnDate(recordID uint, returnDate time.Time) error {
	res := s.db.Model(&models.BorrowRecord{}).
		Where("id = ? AND return_date IS NULL", recordID).
		Update("return_date", returnDate)
	if res.Error != nil {
		return errors.Wrap(res.Error, "set return date")
	}
	if res.RowsAffected == 0 {
		return ErrRecordAlreadyClosed
	}
	return nil
}

func (s *catalogStore) GetPatronBorrowCount(patronID string) (int, error) {
	var count int64
	err := s.db.Model(&models.BorrowRecord{}).
		Where("patron_id = ? AND return_date IS NULL", patronID).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "count active loans")
	}
	return int(count), nil
}

func (s *catalogStore) GetAllBorrowRecords(patronID string) ([]models.BorrowRecord, error) {
	var records []models.BorrowRecord
	err := s.db.
		Where("patron_id = ?", patronID).
		Order("borrow_date").
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrap(err, "list borrow records")
	}
	return records, nil
}

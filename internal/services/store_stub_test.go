package services

import (
	"strings"
	"time"

	"library/internal/models"
	"library/internal/repositories"
)

// stubStore is an in-memory CatalogStore for service tests. It enforces the
// same guards as the real store (availability range, single close) so the
// services see identical behavior at the boundary.
type stubStore struct {
	books   map[uint]*models.Book
	records map[uint]*models.BorrowRecord

	nextBookID   uint
	nextRecordID uint

	insertBookErr   error
	insertRecordErr error
}

func newStubStore() *stubStore {
	return &stubStore{
		books:        make(map[uint]*models.Book),
		records:      make(map[uint]*models.BorrowRecord),
		nextBookID:   1,
		nextRecordID: 1,
	}
}

func (s *stubStore) addBook(title, author, isbn string, total, available int) *models.Book {
	book := &models.Book{
		ID:              s.nextBookID,
		Title:           title,
		Author:          author,
		ISBN:            isbn,
		TotalCopies:     total,
		AvailableCopies: available,
	}
	s.books[book.ID] = book
	s.nextBookID++
	return book
}

func (s *stubStore) addRecord(patronID string, bookID uint, borrowDate, dueDate time.Time, returnDate *time.Time) *models.BorrowRecord {
	record := &models.BorrowRecord{
		ID:         s.nextRecordID,
		PatronID:   patronID,
		BookID:     bookID,
		BorrowDate: borrowDate,
		DueDate:    dueDate,
		ReturnDate: returnDate,
	}
	s.records[record.ID] = record
	s.nextRecordID++
	return record
}

func (s *stubStore) GetBookByID(id uint) (*models.Book, error) {
	book, ok := s.books[id]
	if !ok {
		return nil, nil
	}
	copied := *book
	return &copied, nil
}

func (s *stubStore) GetBookByISBN(isbn string) (*models.Book, error) {
	for _, book := range s.books {
		if book.ISBN == isbn {
			copied := *book
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *stubStore) GetAllBooks() ([]models.Book, error) {
	books := []models.Book{}
	for id := uint(1); id < s.nextBookID; id++ {
		if book, ok := s.books[id]; ok {
			books = append(books, *book)
		}
	}
	return books, nil
}

func (s *stubStore) InsertBook(book *models.Book) error {
	if s.insertBookErr != nil {
		return s.insertBookErr
	}
	book.ID = s.nextBookID
	s.nextBookID++
	copied := *book
	s.books[book.ID] = &copied
	return nil
}

func (s *stubStore) UpdateBookAvailability(bookID uint, delta int) error {
	book, ok := s.books[bookID]
	if !ok {
		return repositories.ErrAvailabilityConflict
	}
	next := book.AvailableCopies + delta
	if next < 0 || next > book.TotalCopies {
		return repositories.ErrAvailabilityConflict
	}
	book.AvailableCopies = next
	return nil
}

func (s *stubStore) SearchBooks(query, field string) ([]models.Book, error) {
	matches := []models.Book{}
	for id := uint(1); id < s.nextBookID; id++ {
		book, ok := s.books[id]
		if !ok {
			continue
		}
		switch field {
		case "title":
			if strings.Contains(strings.ToLower(book.Title), strings.ToLower(query)) {
				matches = append(matches, *book)
			}
		case "author":
			if strings.Contains(strings.ToLower(book.Author), strings.ToLower(query)) {
				matches = append(matches, *book)
			}
		case "isbn":
			if book.ISBN == query {
				matches = append(matches, *book)
			}
		}
	}
	return matches, nil
}

func (s *stubStore) InsertBorrowRecord(record *models.BorrowRecord) error {
	if s.insertRecordErr != nil {
		return s.insertRecordErr
	}
	record.ID = s.nextRecordID
	s.nextRecordID++
	copied := *record
	s.records[record.ID] = &copied
	return nil
}

func (s *stubStore) GetActiveBorrowRecord(patronID string, bookID uint) (*models.BorrowRecord, error) {
	for id := uint(1); id < s.nextRecordID; id++ {
		record, ok := s.records[id]
		if !ok {
			continue
		}
		if record.PatronID == patronID && record.BookID == bookID && record.ReturnDate == nil {
			copied := *record
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *stubStore) SetReturnDate(recordID uint, returnDate time.Time) error {
	record, ok := s.records[recordID]
	if !ok || record.ReturnDate != nil {
		return repositories.ErrRecordAlreadyClosed
	}
	record.ReturnDate = &returnDate
	return nil
}

func (s *stubStore) GetPatronBorrowCount(patronID string) (int, error) {
	count := 0
	for _, record := range s.records {
		if record.PatronID == patronID && record.ReturnDate == nil {
			count++
		}
	}
	return count, nil
}

func (s *stubStore) GetAllBorrowRecords(patronID string) ([]models.BorrowRecord, error) {
	records := []models.BorrowRecord{}
	for id := uint(1); id < s.nextRecordID; id++ {
		record, ok := s.records[id]
		if !ok || record.PatronID != patronID {
			continue
		}
		records = append(records, *record)
	}
	return records, nil
}

func (s *stubStore) Transaction(fn func(tx repositories.CatalogStore) error) error {
	return fn(s)
}

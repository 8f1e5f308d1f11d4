package models

import (
	"time"
)

// Book is a catalog entry. AvailableCopies is maintained by the store and
// must stay within [0, TotalCopies] at all times.
type Book struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	Title           string `gorm:"size:200;not null" json:"title"`
	Author          string `gorm:"size:100;not null" json:"author"`
	ISBN            string `gorm:"size:13;not null;uniqueIndex" json:"isbn"`
	TotalCopies     int    `gorm:"not null" json:"total_copies"`
	AvailableCopies int    `gorm:"not null" json:"available_copies"`
}

// BorrowRecord is one loan of one book to one patron. A nil ReturnDate marks
// the loan as active; it is set exactly once, on return.
type BorrowRecord struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	PatronID   string     `gorm:"size:6;not null;index" json:"patron_id"`
	BookID     uint       `gorm:"not null;index" json:"book_id"`
	Book       Book       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	BorrowDate time.Time  `gorm:"not null" json:"borrow_date"`
	DueDate    time.Time  `gorm:"not null" json:"due_date"`
	ReturnDate *time.Time `json:"return_date"`
}

// FeeInfo is the derived late-fee figure for a single loan. Never persisted.
type FeeInfo struct {
	DaysOverdue int     `json:"days_overdue"`
	FeeAmount   float64 `json:"fee_amount"`
}

// CurrentLoan is one active loan inside a patron status report, together with
// its as-of-now fee.
type CurrentLoan struct {
	RecordID    uint      `json:"record_id"`
	BookID      uint      `json:"book_id"`
	BorrowDate  time.Time `json:"borrow_date"`
	DueDate     time.Time `json:"due_date"`
	DaysOverdue int       `json:"days_overdue"`
	FeeAmount   float64   `json:"fee_amount"`
}

// PatronStatusReport aggregates everything the library knows about a patron.
// Fees are owed on active loans only; returned loans appear in history alone.
type PatronStatusReport struct {
	PatronID                  string         `json:"patron_id"`
	NumBooksCurrentlyBorrowed int            `json:"num_books_currently_borrowed"`
	TotalLateFeesOwed         float64        `json:"total_late_fees_owed"`
	CurrentLoans              []CurrentLoan  `json:"current_loans"`
	BorrowingHistory          []BorrowRecord `json:"borrowing_history"`
}

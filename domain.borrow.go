package main

import "time"

// Borrowing statuses derived from the return date.
const (
	BorrowReturned    = "Returned"
	BorrowNotReturned = "Not Returned"
)

// borrowSearchLayout matches the way borrow dates are displayed.
const borrowSearchLayout = "02 Jan 2006"

// Borrow represents a borrowing record of one book.
type Borrow struct {
	ID            int64  `json:"id"`
	BorrowerName  string `json:"borrowerName"`
	BorrowerMail  string `json:"borrowerMail"`
	BorrowingDate Date   `json:"borrowingDate"`
	ReturnDate    *Date  `json:"returnDate"`
	Book          *Book  `json:"book"`
}

// Status reports whether the book is back at the given instant. A return
// date in the future is a planned return, not an actual one.
func (b Borrow) Status(now time.Time) string {
	if b.ReturnDate == nil || b.ReturnDate.IsZero() || b.ReturnDate.After(now) {
		return BorrowNotReturned
	}
	return BorrowReturned
}

// BorrowDraft is the create/edit form of a borrowing record. No ordering
// check is done between the two dates, the backend owns that rule.
type BorrowDraft struct {
	BorrowerName  string `json:"borrowerName"`
	BorrowerMail  string `json:"borrowerMail"`
	BorrowingDate *Date  `json:"borrowingDate"`
	ReturnDate    *Date  `json:"returnDate"`
	Book          *Ref   `json:"bookForBorrowingRequest"`
}

// BorrowRow is the display form of a borrow with its derived status.
type BorrowRow struct {
	Borrow
	Status string `json:"status"`
}

var BorrowResource = Resource[Borrow, BorrowDraft]{
	Name: "Borrow",
	Path: BorrowsPath,
	ID:   func(b Borrow) int64 { return b.ID },
	Fields: func(b Borrow) []string {
		fields := []string{b.BorrowerName, b.BorrowerMail}
		if !b.BorrowingDate.IsZero() {
			fields = append(fields, b.BorrowingDate.Format(borrowSearchLayout))
		}
		if b.ReturnDate != nil && !b.ReturnDate.IsZero() {
			fields = append(fields, b.ReturnDate.Format(borrowSearchLayout))
		}
		return fields
	},
	ToDraft: func(b Borrow) BorrowDraft {
		d := BorrowDraft{BorrowerName: b.BorrowerName, BorrowerMail: b.BorrowerMail}
		if !b.BorrowingDate.IsZero() {
			d.BorrowingDate = DatePtr(b.BorrowingDate)
		}
		if b.ReturnDate != nil && !b.ReturnDate.IsZero() {
			d.ReturnDate = DatePtr(*b.ReturnDate)
		}
		if b.Book != nil {
			d.Book = NewRef(b.Book.ID)
		}
		return d
	},
	Row: func(b Borrow, now time.Time) any {
		return BorrowRow{Borrow: b, Status: b.Status(now)}
	},
}

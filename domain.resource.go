package main

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format exchanged with the library backend.
const DateLayout = "2006-01-02"

// Ref is the `{ id }` stub used to reference a related entity in drafts.
type Ref struct {
	ID int64 `json:"id"`
}

// NewRef returns a reference to the given id or nil when id is zero.
func NewRef(id int64) *Ref {
	if id == 0 {
		return nil
	}
	return &Ref{ID: id}
}

// Date is a calendar day without time of day. Its zero value is
// sent as JSON null.
type Date struct {
	time.Time
}

// NewDate builds a Date in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a `yyyy-MM-dd` value. Full RFC3339 timestamps are
// accepted as well and truncated to their day.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err == nil {
		return Date{t}, nil
	}
	t, rerr := time.Parse(time.RFC3339, s)
	if rerr != nil {
		return Date{}, err
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

// DatePtr is a small helper for optional dates in drafts.
func DatePtr(d Date) *Date {
	return &d
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(d.Format(DateLayout))), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	s, err := strconv.Unquote(s)
	if err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Resource describes how the generic controller and client deal with one
// entity type T and its create/edit form type D.
type Resource[T any, D any] struct {
	// Name is the display name used in notifications, e.g. "Author".
	Name string
	// Path is the collection segment under /api/v1, e.g. "authors".
	Path string
	ID   func(T) int64
	// Fields returns the values matched by the free-text search.
	Fields  func(T) []string
	ToDraft func(T) D
	// Row optionally decorates an item for display, e.g. with derived fields.
	Row     func(T, time.Time) any
	Options map[string][]string
}

// Resource paths, also used as workspace page names.
const (
	AuthorsPath    = "authors"
	BooksPath      = "books"
	PublishersPath = "publishers"
	CategoriesPath = "categories"
	BorrowsPath    = "borrows"
)

// ResourcePaths lists every administrable resource in menu order.
var ResourcePaths = []string{AuthorsPath, BooksPath, PublishersPath, CategoriesPath, BorrowsPath}

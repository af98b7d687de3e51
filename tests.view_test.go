package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFilter ensures the search is a case-insensitive substring match on
// the searchable fields only.
func TestFilter(t *testing.T) {
	authors := []Author{
		{ID: 1, Name: "Orhan Pamuk", Country: "TURKEY"},
		{ID: 2, Name: "Ngugi", Country: "TANZANYA"},
		{ID: 3, Name: "Pham", Country: "TAYLAND"},
	}

	testCases := []struct {
		name string
		term string
		want []int64
	}{
		{"empty term", "", []int64{1, 2, 3}},
		{"name match ignoring case", "pAMuK", []int64{1}},
		{"country match", "tay", []int64{3}},
		{"several matches", "ta", []int64{2, 3}},
		{"no match", "zzz", []int64{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Filter(authors, tc.term, AuthorResource.Fields)
			ids := make([]int64, 0, len(got))
			for _, a := range got {
				ids = append(ids, a.ID)
			}
			assert.Equal(t, tc.want, ids)
		})
	}

	// the birth date is not searchable.
	withDate := []Author{{ID: 4, Name: "X", BirthDate: NewDate(1999, 1, 1)}}
	assert.Empty(t, Filter(withDate, "1999", AuthorResource.Fields))
}

// TestFilterResources ensures each resource searches its own fields.
func TestFilterResources(t *testing.T) {
	books := []Book{
		{ID: 1, Name: "Dune", Author: &Author{Name: "Frank Herbert"}, Publisher: &Publisher{Name: "Chilton"}},
		{ID: 2, Name: "Emma"},
	}
	assert.Len(t, Filter(books, "herbert", BookResource.Fields), 1)
	assert.Len(t, Filter(books, "chilton", BookResource.Fields), 1)
	assert.Len(t, Filter(books, "emma", BookResource.Fields), 1)

	publishers := []Publisher{{ID: 1, Name: "Ace", EstablishmentYear: 1952, Address: "New York"}}
	assert.Len(t, Filter(publishers, "1952", PublisherResource.Fields), 1)
	assert.Len(t, Filter(publishers, "york", PublisherResource.Fields), 1)

	categories := []Category{{ID: 1, Name: "Novel", Description: "Long fiction"}}
	assert.Len(t, Filter(categories, "FICTION", CategoryResource.Fields), 1)

	returned := NewDate(2023, 6, 20)
	borrows := []Borrow{
		{ID: 1, BorrowerName: "Ann", BorrowerMail: "ann@example.com", BorrowingDate: NewDate(2023, 6, 1), ReturnDate: &returned},
		{ID: 2, BorrowerName: "Bob", BorrowerMail: "bob@example.com", BorrowingDate: NewDate(2023, 5, 2)},
	}
	assert.Len(t, Filter(borrows, "20 jun", BorrowResource.Fields), 1)
	assert.Len(t, Filter(borrows, "2023", BorrowResource.Fields), 2)
	assert.Len(t, Filter(borrows, "bob@", BorrowResource.Fields), 1)
}

// TestPaginate ensures the window and out of range handling.
func TestPaginate(t *testing.T) {
	items := make([]int, 23)
	for i := range items {
		items[i] = i
	}

	testCases := []struct {
		page, size int
		want       []int
	}{
		{0, 10, items[0:10]},
		{1, 10, items[10:20]},
		{2, 10, items[20:23]},
		{3, 10, []int{}},
		{0, 50, items},
		{-1, 10, []int{}},
		{0, 0, []int{}},
		{46, 1, []int{}},
		{22, 1, []int{22}},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("page %d size %d", tc.page, tc.size), func(t *testing.T) {
			assert.Equal(t, tc.want, Paginate(items, tc.page, tc.size))
		})
	}

	assert.Equal(t, []int{}, Paginate([]int{}, 0, 10))
}

// TestNormalizeError ensures the message priority.
func TestNormalizeError(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want string
	}{
		{"nil error", nil, "An error occurred."},
		{"validation messages first", &ClientError{Status: 400, Message: "Validation failed", Messages: []string{"a", "b"}}, "a; b"},
		{"server message", &ClientError{Status: 500, Message: "boom"}, "boom"},
		{"transport error", &ClientError{Method: "GET", URL: "http://x", Err: errors.New("connection refused")}, "connection refused"},
		{"bare status", &ClientError{Method: "GET", URL: "http://x", Status: 502}, "GET http://x failed with status 502"},
		{"wrapped client error", fmt.Errorf("submit: %w", &ClientError{Message: "inner"}), "inner"},
		{"plain error", errors.New("something broke"), "something broke"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n := NormalizeError(tc.err)
			assert.Equal(t, SeverityError, n.Severity)
			assert.Equal(t, tc.want, n.Message)
			assert.Equal(t, n, NormalizeError(tc.err))
		})
	}
}

// TestPresenter ensures notifications replace each other, expire and are published.
func TestPresenter(t *testing.T) {
	clock := NewMockClocker()
	var published []Notification
	p := NewPresenter(clock, 2*time.Second, BooksPath, func(n Notification) {
		published = append(published, n)
	})

	assert.Nil(t, p.Current())
	p.Success("Book added successfully.")
	p.Error(errors.New("nope"))

	n := p.Current()
	require.NotNil(t, n)
	assert.Equal(t, "nope", n.Message)
	assert.Equal(t, BooksPath, n.Resource)
	assert.Equal(t, clock.Now(), n.RaisedAt)
	assert.Equal(t, clock.Now().Add(2*time.Second), n.ExpiresAt)
	require.Len(t, published, 2)
	assert.Equal(t, SeveritySuccess, published[0].Severity)

	// callers get a copy.
	n.Message = "changed"
	assert.Equal(t, "nope", p.Current().Message)

	clock.Advance(2 * time.Second)
	assert.Nil(t, p.Current())

	p.Success("again")
	p.Dismiss()
	assert.Nil(t, p.Current())
}

// TestBorrowStatus ensures the derived status uses the injected instant.
func TestBorrowStatus(t *testing.T) {
	now := time.Date(2023, 7, 2, 12, 0, 0, 0, time.UTC)
	past := NewDate(2023, 7, 1)
	today := NewDate(2023, 7, 2)
	future := NewDate(2023, 7, 3)

	assert.Equal(t, BorrowNotReturned, Borrow{}.Status(now))
	assert.Equal(t, BorrowNotReturned, Borrow{ReturnDate: &Date{}}.Status(now))
	assert.Equal(t, BorrowReturned, Borrow{ReturnDate: &past}.Status(now))
	assert.Equal(t, BorrowReturned, Borrow{ReturnDate: &today}.Status(now))
	assert.Equal(t, BorrowNotReturned, Borrow{ReturnDate: &future}.Status(now))
}

// TestDateJSON ensures dates use the backend calendar format.
func TestDateJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A Date  `json:"a"`
		B Date  `json:"b"`
		C *Date `json:"c"`
	}{A: NewDate(2020, 2, 29)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"2020-02-29","b":null,"c":null}`, string(data))

	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"1999-12-31"`), &d))
	assert.Equal(t, NewDate(1999, 12, 31), d)
	require.NoError(t, json.Unmarshal([]byte(`"2001-05-06T22:10:00Z"`), &d))
	assert.Equal(t, "2001-05-06", d.String())
	require.NoError(t, json.Unmarshal([]byte(`""`), &d))
	assert.True(t, d.IsZero())
	assert.Error(t, json.Unmarshal([]byte(`"31/12/1999"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`12`), &d))
}

// TestResourceDrafts ensures items convert to the drafts sent back on update.
func TestResourceDrafts(t *testing.T) {
	book := Book{
		ID: 1, Name: "Dune", PublicationYear: 1965, Stock: 4,
		Author:     &Author{ID: 2, Name: "Frank Herbert"},
		Publisher:  &Publisher{ID: 3},
		Categories: []Category{{ID: 5}, {ID: 6}},
	}
	assert.Equal(t, BookDraft{
		Name: "Dune", PublicationYear: 1965, Stock: 4,
		Author: &Ref{ID: 2}, Publisher: &Ref{ID: 3}, Categories: []Ref{{ID: 5}, {ID: 6}},
	}, BookResource.ToDraft(book))

	noRelations := BookResource.ToDraft(Book{Name: "Loose"})
	assert.Nil(t, noRelations.Author)
	assert.Nil(t, noRelations.Publisher)
	assert.Equal(t, []Ref{}, noRelations.Categories)

	returned := NewDate(2023, 6, 20)
	borrow := Borrow{ID: 9, BorrowerName: "Ann", BorrowingDate: NewDate(2023, 6, 1), ReturnDate: &returned, Book: &Book{ID: 1}}
	draft := BorrowResource.ToDraft(borrow)
	assert.Equal(t, &Ref{ID: 1}, draft.Book)
	assert.Equal(t, "2023-06-01", draft.BorrowingDate.String())
	assert.Equal(t, "2023-06-20", draft.ReturnDate.String())

	author := AuthorResource.ToDraft(Author{ID: 1, Name: "A"})
	assert.Nil(t, author.BirthDate)
	assert.Nil(t, NewRef(0))
}

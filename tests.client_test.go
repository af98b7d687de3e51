package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestResourceClientEndpoint ensures the base url is joined with the api prefix.
func TestResourceClientEndpoint(t *testing.T) {
	rc := NewResourceClient[Author, AuthorDraft](http.DefaultClient, "http://library.local:8080/", AuthorsPath)
	assert.Equal(t, "http://library.local:8080/api/v1/authors", rc.Endpoint())

	clients := NewClients(http.DefaultClient, "http://h")
	assert.Equal(t, "http://h/api/v1/books", clients.Books.Endpoint())
	assert.Equal(t, "http://h/api/v1/publishers", clients.Publishers.Endpoint())
	assert.Equal(t, "http://h/api/v1/categories", clients.Categories.Endpoint())
	assert.Equal(t, "http://h/api/v1/borrows", clients.Borrows.Endpoint())
}

// TestResourceClientCRUD exercises each operation against the fake backend.
func TestResourceClientCRUD(t *testing.T) {
	fb := newFakeBackend(t)
	client := fb.Clients().Authors
	ctx := context.Background()

	items, err := client.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	birth := NewDate(1815, 12, 10)
	created, err := client.Create(ctx, AuthorDraft{Name: "Ada Lovelace", BirthDate: &birth, Country: "TURKEY"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Ada Lovelace", created.Name)
	assert.Equal(t, "1815-12-10", created.BirthDate.String())
	assert.Equal(t, 1, fb.Calls(http.MethodPost, "/api/v1/authors"))

	got, err := client.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	updated, err := client.Update(ctx, created.ID, AuthorDraft{Name: "Ada King", BirthDate: &birth, Country: "TONGA"})
	require.NoError(t, err)
	assert.Equal(t, "Ada King", updated.Name)
	assert.Equal(t, created.ID, updated.ID)

	// the id is sent inside the update body as well.
	body := fb.LastBody(http.MethodPut, client.itemURL(created.ID)[len(fb.URL()):])
	require.NotNil(t, body)
	assert.Equal(t, float64(created.ID), body["id"])
	assert.Equal(t, "Ada King", body["name"])

	items, err = client.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, client.Delete(ctx, created.ID))
	assert.Equal(t, 0, fb.Len(AuthorsPath))
}

// TestResourceClientBookDraftReferences ensures relations are sent as id stubs.
func TestResourceClientBookDraftReferences(t *testing.T) {
	fb := newFakeBackend(t)
	client := fb.Clients().Books

	_, err := client.Create(context.Background(), BookDraft{
		Name:            "Dune",
		PublicationYear: 1965,
		Stock:           3,
		Author:          NewRef(7),
		Publisher:       NewRef(9),
		Categories:      []Ref{{ID: 1}, {ID: 2}},
	})
	require.NoError(t, err)

	body := fb.LastBody(http.MethodPost, "/api/v1/books")
	assert.Equal(t, map[string]any{"id": float64(7)}, body["author"])
	assert.Equal(t, map[string]any{"id": float64(9)}, body["publisher"])
	assert.Equal(t, []any{map[string]any{"id": float64(1)}, map[string]any{"id": float64(2)}}, body["categories"])
}

// TestResourceClientBorrowDraftField ensures the book of a borrow uses the backend field name.
func TestResourceClientBorrowDraftField(t *testing.T) {
	fb := newFakeBackend(t)
	borrowed := NewDate(2023, 6, 1)
	_, err := fb.Clients().Borrows.Create(context.Background(), BorrowDraft{
		BorrowerName:  "Grace",
		BorrowerMail:  "grace@example.com",
		BorrowingDate: &borrowed,
		Book:          NewRef(3),
	})
	require.NoError(t, err)

	body := fb.LastBody(http.MethodPost, "/api/v1/borrows")
	assert.Equal(t, map[string]any{"id": float64(3)}, body["bookForBorrowingRequest"])
	assert.Equal(t, "2023-06-01", body["borrowingDate"])
	assert.Nil(t, body["returnDate"])
}

// TestResourceClientErrors ensures server answers are parsed into ClientError.
func TestResourceClientErrors(t *testing.T) {
	fb := newFakeBackend(t)
	client := fb.Clients().Authors
	ctx := context.Background()

	t.Run("validation messages", func(t *testing.T) {
		fb.Fail(http.MethodPost, "/api/v1/authors", http.StatusBadRequest,
			`{"message":"Validation failed","data":["name must not be blank"," country is required "]}`)
		defer fb.Recover(http.MethodPost, "/api/v1/authors")

		_, err := client.Create(ctx, AuthorDraft{})
		var cerr *ClientError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, http.StatusBadRequest, cerr.Status)
		assert.Equal(t, http.MethodPost, cerr.Method)
		assert.Equal(t, "Validation failed", cerr.Message)
		assert.Equal(t, []string{"name must not be blank", "country is required"}, cerr.Messages)
		assert.Nil(t, cerr.Err)
		assert.Contains(t, cerr.Error(), "name must not be blank; country is required")
	})

	t.Run("single string data", func(t *testing.T) {
		fb.Fail(http.MethodGet, "/api/v1/authors", http.StatusInternalServerError, `{"message":"boom","data":"database is down"}`)
		defer fb.Recover(http.MethodGet, "/api/v1/authors")

		_, err := client.List(ctx)
		var cerr *ClientError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, []string{"database is down"}, cerr.Messages)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := client.GetByID(ctx, 404)
		var cerr *ClientError
		require.True(t, errors.As(err, &cerr))
		assert.True(t, cerr.IsNotFound())
		assert.Equal(t, "entity 404 not found", cerr.Message)
		assert.Empty(t, cerr.Messages)
	})

	t.Run("plain text body", func(t *testing.T) {
		fb.FailPlain(http.MethodGet, "/api/v1/authors", http.StatusBadGateway, "upstream unavailable\n")
		defer fb.Recover(http.MethodGet, "/api/v1/authors")

		_, err := client.List(ctx)
		var cerr *ClientError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, "upstream unavailable", cerr.Message)
	})

	t.Run("long plain text body", func(t *testing.T) {
		// two-byte characters after one ascii byte put the size limit inside a character.
		body := "a" + strings.Repeat("ş", maxPlainErrorSize)
		fb.FailPlain(http.MethodGet, "/api/v1/authors", http.StatusBadGateway, body)
		defer fb.Recover(http.MethodGet, "/api/v1/authors")

		_, err := client.List(ctx)
		var cerr *ClientError
		require.True(t, errors.As(err, &cerr))
		assert.True(t, utf8.ValidString(cerr.Message))
		assert.Equal(t, maxPlainErrorSize-1, len(cerr.Message))
		assert.Equal(t, body[:maxPlainErrorSize-1], cerr.Message)
	})

	t.Run("empty body", func(t *testing.T) {
		fb.Fail(http.MethodDelete, "/api/v1/authors/1", http.StatusInternalServerError, "")
		defer fb.Recover(http.MethodDelete, "/api/v1/authors/1")

		err := client.Delete(ctx, 1)
		var cerr *ClientError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, "DELETE "+fb.URL()+"/api/v1/authors/1 failed with status 500", cerr.Error())
	})
}

// TestResourceClientTransportError ensures network failures set Err.
func TestResourceClientTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewResourceClient[Category, CategoryDraft](http.DefaultClient, url, CategoriesPath)
	_, err := client.List(context.Background())
	var cerr *ClientError
	require.True(t, errors.As(err, &cerr))
	assert.NotNil(t, cerr.Err)
	assert.Zero(t, cerr.Status)
	assert.False(t, cerr.IsNotFound())
}

// TestResourceClientDecodeError ensures undecodable 2xx bodies are reported.
func TestResourceClientDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "not a number"`))
	}))
	defer server.Close()

	client := NewResourceClient[Publisher, PublisherDraft](server.Client(), server.URL, PublishersPath)
	_, err := client.GetByID(context.Background(), 1)
	var cerr *ClientError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, http.StatusOK, cerr.Status)
	assert.ErrorContains(t, cerr, "decode response body")
}

package main

import (
	"net/http"
)

// Clients groups the resource clients of the library backend.
type Clients struct {
	Authors    *ResourceClient[Author, AuthorDraft]
	Books      *ResourceClient[Book, BookDraft]
	Publishers *ResourceClient[Publisher, PublisherDraft]
	Categories *ResourceClient[Category, CategoryDraft]
	Borrows    *ResourceClient[Borrow, BorrowDraft]
}

// NewBackendHTTPClient provides the http client shared by all resource clients.
func NewBackendHTTPClient(config *BackendConfig) *http.Client {
	return &http.Client{Timeout: config.Timeout}
}

// NewClients provides the five resource clients bound to baseURL.
func NewClients(hc *http.Client, baseURL string) *Clients {
	return &Clients{
		Authors:    NewResourceClient[Author, AuthorDraft](hc, baseURL, AuthorResource.Path),
		Books:      NewResourceClient[Book, BookDraft](hc, baseURL, BookResource.Path),
		Publishers: NewResourceClient[Publisher, PublisherDraft](hc, baseURL, PublisherResource.Path),
		Categories: NewResourceClient[Category, CategoryDraft](hc, baseURL, CategoryResource.Path),
		Borrows:    NewResourceClient[Borrow, BorrowDraft](hc, baseURL, BorrowResource.Path),
	}
}

package main

import "strings"

// Page modes of the create/edit form.
const (
	ModeCreate = "create"
	ModeEdit   = "edit"
)

// DefaultPageSize is the number of rows shown when nothing else was chosen.
const DefaultPageSize = 10

// DefaultPageSizes are the page sizes offered to the user.
var DefaultPageSizes = []int{10, 25, 50}

// PageView is the serializable state of a page as rendered to the browser.
type PageView struct {
	Resource      string              `json:"resource"`
	Title         string              `json:"title"`
	Mode          string              `json:"mode"`
	EditingID     *int64              `json:"editingId"`
	Draft         any                 `json:"draft"`
	SearchTerm    string              `json:"searchTerm"`
	Page          int                 `json:"page"`
	PageSize      int                 `json:"pageSize"`
	PageSizes     []int               `json:"pageSizes"`
	Total         int                 `json:"total"`
	Items         []any               `json:"items"`
	References    map[string]any      `json:"references,omitempty"`
	Options       map[string][]string `json:"options,omitempty"`
	PendingDelete *int64              `json:"pendingDelete"`
	Notification  *Notification       `json:"notification"`
	Loaded        bool                `json:"loaded"`
}

// Filter keeps the items where at least one of the searchable fields
// contains term, ignoring case. An empty term returns items as is.
func Filter[T any](items []T, term string, fields func(T) []string) []T {
	if term == "" {
		return items
	}
	needle := strings.ToLower(term)
	matched := make([]T, 0, len(items))
	for _, item := range items {
		for _, field := range fields(item) {
			if strings.Contains(strings.ToLower(field), needle) {
				matched = append(matched, item)
				break
			}
		}
	}
	return matched
}

// Paginate returns the window [page*size, page*size+size) of items.
// Out of range pages yield an empty slice.
func Paginate[T any](items []T, page, size int) []T {
	if page < 0 || size <= 0 || page > len(items)/size {
		return []T{}
	}
	start := page * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

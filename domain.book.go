package main

// Book represents a book entity with its resolved relations.
type Book struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	PublicationYear int        `json:"publicationYear"`
	Stock           int        `json:"stock"`
	Author          *Author    `json:"author"`
	Publisher       *Publisher `json:"publisher"`
	Categories      []Category `json:"categories"`
}

// BookDraft is the create/edit form of a book. Relations are sent as id
// stubs and resolved by the backend at submit time.
type BookDraft struct {
	Name            string `json:"name"`
	PublicationYear int    `json:"publicationYear"`
	Stock           int    `json:"stock"`
	Author          *Ref   `json:"author"`
	Publisher       *Ref   `json:"publisher"`
	Categories      []Ref  `json:"categories"`
}

var BookResource = Resource[Book, BookDraft]{
	Name: "Book",
	Path: BooksPath,
	ID:   func(b Book) int64 { return b.ID },
	Fields: func(b Book) []string {
		fields := []string{b.Name}
		if b.Author != nil {
			fields = append(fields, b.Author.Name)
		}
		if b.Publisher != nil {
			fields = append(fields, b.Publisher.Name)
		}
		return fields
	},
	ToDraft: func(b Book) BookDraft {
		d := BookDraft{
			Name:            b.Name,
			PublicationYear: b.PublicationYear,
			Stock:           b.Stock,
			Categories:      make([]Ref, 0, len(b.Categories)),
		}
		if b.Author != nil {
			d.Author = NewRef(b.Author.ID)
		}
		if b.Publisher != nil {
			d.Publisher = NewRef(b.Publisher.ID)
		}
		for _, c := range b.Categories {
			d.Categories = append(d.Categories, Ref{ID: c.ID})
		}
		return d
	},
}

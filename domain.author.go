package main

// Countries is the fixed list offered by the author form.
var Countries = []string{
	"TACİKİSTAN",
	"TANZANYA",
	"TAYLAND",
	"TAYVAN (Chinese Taipei)",
	"TOGO",
	"TONGA",
	"TURKEY",
}

// Author represents an author entity.
type Author struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	BirthDate Date   `json:"birthDate"`
	Country   string `json:"country"`
}

// AuthorDraft is the create/edit form of an author.
type AuthorDraft struct {
	Name      string `json:"name"`
	BirthDate *Date  `json:"birthDate"`
	Country   string `json:"country"`
}

var AuthorResource = Resource[Author, AuthorDraft]{
	Name: "Author",
	Path: AuthorsPath,
	ID:   func(a Author) int64 { return a.ID },
	Fields: func(a Author) []string {
		return []string{a.Name, a.Country}
	},
	ToDraft: func(a Author) AuthorDraft {
		d := AuthorDraft{Name: a.Name, Country: a.Country}
		if !a.BirthDate.IsZero() {
			d.BirthDate = DatePtr(a.BirthDate)
		}
		return d
	},
	Options: map[string][]string{"country": Countries},
}

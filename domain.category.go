package main

// Category represents a book category.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CategoryDraft is the create/edit form of a category.
type CategoryDraft struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var CategoryResource = Resource[Category, CategoryDraft]{
	Name: "Category",
	Path: CategoriesPath,
	ID:   func(c Category) int64 { return c.ID },
	Fields: func(c Category) []string {
		return []string{c.Name, c.Description}
	},
	ToDraft: func(c Category) CategoryDraft {
		return CategoryDraft{Name: c.Name, Description: c.Description}
	},
}

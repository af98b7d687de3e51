package main

import "strconv"

// Publisher represents a publishing house.
type Publisher struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	EstablishmentYear int    `json:"establishmentYear"`
	Address           string `json:"address"`
}

// PublisherDraft is the create/edit form of a publisher.
type PublisherDraft struct {
	Name              string `json:"name"`
	EstablishmentYear int    `json:"establishmentYear"`
	Address           string `json:"address"`
}

var PublisherResource = Resource[Publisher, PublisherDraft]{
	Name: "Publisher",
	Path: PublishersPath,
	ID:   func(p Publisher) int64 { return p.ID },
	Fields: func(p Publisher) []string {
		return []string{p.Name, p.Address, strconv.Itoa(p.EstablishmentYear)}
	},
	ToDraft: func(p Publisher) PublisherDraft {
		return PublisherDraft{Name: p.Name, EstablishmentYear: p.EstablishmentYear, Address: p.Address}
	},
}

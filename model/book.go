// model/book.go
package model

import "github.com/google/uuid"

type BookGenre string

const (
	GenreFiction    BookGenre = "FICTION"
	GenreNonFiction BookGenre = "NON_FICTION"
	GenreScience    BookGenre = "SCIENCE"
	GenreHistory    BookGenre = "HISTORY"
	GenreBiography  BookGenre = "BIOGRAPHY"
	GenreChildren   BookGenre = "CHILDREN"
	GenreOther      BookGenre = "OTHER"
)

type Book struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	ISBN              string    `json:"isbn"`
	Author            string    `json:"author"`
	Publisher         string    `json:"publisher"`
	NumberOfPages     int       `json:"number_of_pages"`
	Quantity          int       `json:"quantity"`
	AvailableQuantity int       `json:"available_quantity"`
	Genre             BookGenre `json:"genre"`
}

// BookSpec carries the caller-supplied fields for create/update.
// Quantities are normalized by the inventory service before they
// ever reach storage.
type BookSpec struct {
	Name          string
	ISBN          string
	Author        string
	Publisher     string
	NumberOfPages int
	Quantity      int
	Genre         BookGenre
}

package book

type BookReq struct {
	Name          string `json:"name" validate:"required"`
	ISBN          string `json:"isbn" validate:"required,isbn13"`
	Author        string `json:"author" validate:"required"`
	Publisher     string `json:"publisher" validate:"required"`
	NumberOfPages int    `json:"number_of_pages" validate:"gte=0"`
	Quantity      int    `json:"quantity" validate:"gte=0"`
	Genre         string `json:"genre"`
}

type QuantityUpdateReq struct {
	AvailableQuantity *int `json:"available_quantity" validate:"required"`
}

package borrowing

type CreateBorrowingReq struct {
	BookID string `json:"book_id" validate:"required,uuid4"`
	// UserID is optional: absent means the caller borrows for themselves.
	// Borrowing on behalf of someone else takes the librarian role.
	UserID string `json:"user_id" validate:"omitempty,uuid4"`
}

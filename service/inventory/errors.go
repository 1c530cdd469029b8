package inventory

import "errors"

// errors used by controllers and the lending workflow

type ErrCode string

const (
	ErrBookNotFound     ErrCode = "BOOK_NOT_FOUND"
	ErrBookNotAvailable ErrCode = "BOOK_NOT_AVAILABLE"
	ErrInvalidQuantity  ErrCode = "INVALID_QUANTITY"
	ErrISBNTaken        ErrCode = "ISBN_TAKEN"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

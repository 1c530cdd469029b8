package lending

import "errors"

// errors used by controllers

type ErrCode string

const (
	ErrBookNotFound        ErrCode = "BOOK_NOT_FOUND"
	ErrBookNotAvailable    ErrCode = "BOOK_NOT_AVAILABLE"
	ErrUserNotFound        ErrCode = "USER_NOT_FOUND"
	ErrUserNotActive       ErrCode = "USER_IS_NOT_ACTIVE"
	ErrBorrowingNotFound   ErrCode = "BORROWING_NOT_FOUND"
	ErrBookAlreadyReturned ErrCode = "BOOK_ALREADY_RETURNED"
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

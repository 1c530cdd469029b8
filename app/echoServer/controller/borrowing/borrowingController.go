package borrowing

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ilhanozkan/library-management-app/model"
	"github.com/ilhanozkan/library-management-app/service/lending"
)

type Controller struct {
	Svc lending.Service
	V   *validator.Validate
	Log *slog.Logger
}

func isLibrarian(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == string(model.RoleLibrarian)
}

func callerID(c echo.Context) (uuid.UUID, bool) {
	uid, ok := c.Get("user_id").(uuid.UUID)
	return uid, ok
}

// POST /v1/borrowings
func (h *Controller) Create(c echo.Context) error {
	var req CreateBorrowingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}

	uid, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	bookID, err := uuid.Parse(req.BookID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid book id"})
	}

	borrower := uid
	if req.UserID != "" {
		target, err := uuid.Parse(req.UserID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid user id"})
		}
		if target != uid && !isLibrarian(c) {
			return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
		}
		borrower = target
	}

	loan, err := h.Svc.Create(c.Request().Context(), bookID, borrower)
	if err != nil {
		h.Log.Error("borrowing create", "err", err)
		switch lending.Code(err) {
		case lending.ErrBookNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		case lending.ErrUserNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		case lending.ErrUserNotActive:
			return c.JSON(http.StatusConflict, echo.Map{"message": "user is not active"})
		case lending.ErrBookNotAvailable:
			return c.JSON(http.StatusConflict, echo.Map{"message": "book is not available"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, loan)
}

// POST /v1/borrowings/:id/return
func (h *Controller) Return(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	// the workflow assumes authorization is settled before it runs:
	// only the borrower or a librarian may return a loan
	loan, err := h.Svc.GetByID(c.Request().Context(), id)
	if err != nil {
		if lending.Code(err) == lending.ErrBorrowingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "borrowing not found"})
		}
		h.Log.Error("borrowing lookup", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	if loan.UserID != uid && !isLibrarian(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}

	returned, err := h.Svc.Return(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("borrowing return", "err", err)
		switch lending.Code(err) {
		case lending.ErrBorrowingNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "borrowing not found"})
		case lending.ErrBookAlreadyReturned:
			return c.JSON(http.StatusConflict, echo.Map{"message": "book already returned"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, returned)
}

// DELETE /v1/borrowings/:id  (librarian)
func (h *Controller) Delete(c echo.Context) error {
	if !isLibrarian(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		h.Log.Error("borrowing delete", "err", err)
		switch lending.Code(err) {
		case lending.ErrBorrowingNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "borrowing not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}

// GET /v1/borrowings  (librarian)
func (h *Controller) ListAll(c echo.Context) error {
	if !isLibrarian(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	rows, err := h.Svc.ListAll(c.Request().Context())
	if err != nil {
		h.Log.Error("borrowing list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/borrowings/my
func (h *Controller) My(c echo.Context) error {
	uid, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	rows, err := h.Svc.ListByUser(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("borrowing history", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/borrowings/my/active
func (h *Controller) MyActive(c echo.Context) error {
	uid, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	rows, err := h.Svc.ListActiveByUser(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("active borrowings", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

package report

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ilhanozkan/library-management-app/model"
	"github.com/ilhanozkan/library-management-app/service/overdue"
)

type Controller struct {
	Svc overdue.Service
	Log *slog.Logger
}

func isLibrarian(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == string(model.RoleLibrarian)
}

// GET /v1/reports/overdue  (librarian)
func (h *Controller) Overdue(c echo.Context) error {
	if !isLibrarian(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	sum, err := h.Svc.Summary(c.Request().Context(), time.Now().UTC())
	if err != nil {
		h.Log.Error("overdue report", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, sum)
}

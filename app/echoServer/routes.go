package echoServer

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/ilhanozkan/library-management-app/app/echoServer/controller/book"
	"github.com/ilhanozkan/library-management-app/app/echoServer/controller/borrowing"
	"github.com/ilhanozkan/library-management-app/app/echoServer/controller/report"
	"github.com/ilhanozkan/library-management-app/app/echoServer/jwtx"
)

type C struct {
	Book      *book.Controller
	Borrowing *borrowing.Controller
	Report    *report.Controller
	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	auth := e.Group("/v1")
	auth.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(c.JWTSecret),
		TokenLookup: "header:Authorization:Bearer ",
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return jwt.MapClaims{}
		},
	}))
	// caller identity extraction: user_id + role into the echo context
	auth.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			uid, err := jwtx.UserIDFromContext(ctx)
			if err != nil {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			ctx.Set("user_id", uid)
			ctx.Set("role", jwtx.RoleFromContext(ctx))
			return next(ctx)
		}
	})

	// Books
	auth.GET("/books", c.Book.List)
	auth.GET("/books/availability/stream", c.Book.StreamAvailability)
	auth.GET("/books/isbn/:isbn", c.Book.ByISBN)
	auth.GET("/books/:id", c.Book.Detail)
	// Librarian endpoints
	auth.POST("/books", c.Book.Create)
	auth.PUT("/books/:id", c.Book.Update)
	auth.DELETE("/books/:id", c.Book.Delete)
	auth.PATCH("/books/:id/available-quantity", c.Book.SetAvailableQuantity)

	// Borrowings
	auth.POST("/borrowings", c.Borrowing.Create)
	auth.POST("/borrowings/:id/return", c.Borrowing.Return)
	auth.DELETE("/borrowings/:id", c.Borrowing.Delete)
	auth.GET("/borrowings", c.Borrowing.ListAll)
	auth.GET("/borrowings/my", c.Borrowing.My)
	auth.GET("/borrowings/my/active", c.Borrowing.MyActive)

	// Reports
	auth.GET("/reports/overdue", c.Report.Overdue)
}

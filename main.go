// Package main library management API.
//
// @title           Library Management API
// @version         1.0
// @description     Library inventory and lending service (books, borrowings, overdue reports, availability stream).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/ilhanozkan/library-management-app/app/echoServer"
	bookctrl "github.com/ilhanozkan/library-management-app/app/echoServer/controller/book"
	borrowctrl "github.com/ilhanozkan/library-management-app/app/echoServer/controller/borrowing"
	reportctrl "github.com/ilhanozkan/library-management-app/app/echoServer/controller/report"
	"github.com/ilhanozkan/library-management-app/app/echoServer/validation"
	"github.com/ilhanozkan/library-management-app/config"
	bookrepo "github.com/ilhanozkan/library-management-app/repository/book"
	loanrepo "github.com/ilhanozkan/library-management-app/repository/loan"
	userrepo "github.com/ilhanozkan/library-management-app/repository/user"
	"github.com/ilhanozkan/library-management-app/service/inventory"
	"github.com/ilhanozkan/library-management-app/service/lending"
	"github.com/ilhanozkan/library-management-app/service/notifier"
	"github.com/ilhanozkan/library-management-app/service/overdue"
	"github.com/ilhanozkan/library-management-app/util/database"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	// DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	br := bookrepo.New(db)
	lr := loanrepo.New(db)
	ur := userrepo.New(db)

	// availability fan-out
	hub := notifier.NewHub()
	defer hub.Close()

	// services
	inv := inventory.New(br, hub)
	lend := lending.New(lr, ur, inv)
	over := overdue.New(lr)

	// controllers
	v := validator.New()
	bookC := &bookctrl.Controller{Svc: inv, Hub: hub, V: v, Log: log}
	borrowC := &borrowctrl.Controller{Svc: lend, V: v, Log: log}
	reportC := &reportctrl.Controller{Svc: over, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Book:      bookC,
		Borrowing: borrowC,
		Report:    reportC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	log.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}

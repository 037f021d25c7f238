package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/timekeep/timesheet-share/internal/access"
	"github.com/timekeep/timesheet-share/internal/config"
	"github.com/timekeep/timesheet-share/internal/database"
	"github.com/timekeep/timesheet-share/internal/handler"
	"github.com/timekeep/timesheet-share/internal/report"
	"github.com/timekeep/timesheet-share/internal/repository"
	"github.com/timekeep/timesheet-share/internal/router"
	"github.com/timekeep/timesheet-share/internal/share"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, sessions fall back to in-process store")
	}

	shares := repository.NewShareRepo(db)
	projects := repository.NewProjectRepo(db)
	timesheets := repository.NewTimesheetRepo(db)

	reports := report.NewService(timesheets, projects)
	gate := access.NewGate(nil)
	manage := share.NewService(shares, cfg.BcryptCost)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterView(e, handler.NewViewHandler(shares, reports, gate), rdb, config.LoadRateLimitConfig(), cfg.SessionTTL)
	router.RegisterManage(e, handler.NewManageHandler(shares, manage), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

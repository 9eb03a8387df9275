package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/firehall-dev/duty-roster/backend/internal/config"
	"github.com/firehall-dev/duty-roster/backend/internal/repository"
	"github.com/firehall-dev/duty-roster/backend/internal/seed"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var perTeam int
	var replacements int

	flag.IntVar(&op, "op", 0, "operation (1: teams+users, 2: cycle config+shifts, 3: sample replacements, 4: everything)")
	flag.IntVar(&perTeam, "per-team", 6, "users to create per team")
	flag.IntVar(&replacements, "replacements", 3, "sample replacements to open")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("could not load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("could not create database pool", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open does not reach the database until the first query.
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("could not connect to database", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	seedTeamsAndUsers := func() {
		teams, err := seed.SeedTeams(repo)
		if err != nil {
			logger.Error("could not seed teams", "error", err)
			os.Exit(1)
		}
		if err := seed.SeedUsers(repo, teams, perTeam, cfg.Seed.User.Password, cfg.Email.UserDomain); err != nil {
			logger.Error("could not seed users", "error", err)
			os.Exit(1)
		}
		logger.Info("seeded teams and users", "teams", len(teams), "perTeam", perTeam)
	}

	switch op {
	case 1:
		seedTeamsAndUsers()
	case 2:
		seedCycleAndShifts(logger, repo)
	case 3:
		seedSampleReplacements(logger, repo, replacements)
	case 4:
		seedTeamsAndUsers()
		seedCycleAndShifts(logger, repo)
		seedSampleReplacements(logger, repo, replacements)
	default:
		logger.Error("no operation given, use -op")
	}
}

func seedCycleAndShifts(logger *slog.Logger, repo *repository.Repository) {
	cycleCfg, err := seed.SeedCycleConfig(repo)
	if err != nil {
		logger.Error("could not seed cycle configuration", "error", err)
		os.Exit(1)
	}

	teams, err := repo.GetAllTeams()
	if err != nil {
		logger.Error("could not list teams", "error", err)
		os.Exit(1)
	}

	if err := seed.SeedShifts(repo, teams, cycleCfg); err != nil {
		logger.Error("could not seed shifts", "error", err)
		os.Exit(1)
	}
	logger.Info("seeded cycle configuration and shifts", "cycleLengthDays", cycleCfg.CycleLengthDays)
}

func seedSampleReplacements(logger *slog.Logger, repo *repository.Repository, n int) {
	cycleCfg, err := repo.GetActiveCycleConfig()
	if err != nil {
		logger.Error("no active cycle configuration, seed shifts first", "error", err)
		os.Exit(1)
	}

	teams, err := repo.GetAllTeams()
	if err != nil {
		logger.Error("could not list teams", "error", err)
		os.Exit(1)
	}

	if err := seed.SeedReplacements(repo, teams, cycleCfg, n); err != nil {
		logger.Error("could not seed replacements", "error", err)
		os.Exit(1)
	}
	logger.Info("seeded sample replacements", "count", n)
}

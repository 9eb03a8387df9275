package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/firehall-dev/duty-roster/backend/internal/audit"
	"github.com/firehall-dev/duty-roster/backend/internal/config"
	"github.com/firehall-dev/duty-roster/backend/internal/domain"
	"github.com/firehall-dev/duty-roster/backend/internal/handler"
	"github.com/firehall-dev/duty-roster/backend/internal/notifier"
	"github.com/firehall-dev/duty-roster/backend/internal/repository"
	"github.com/firehall-dev/duty-roster/backend/internal/sweeper"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * configuration
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("could not load configuration", "error", err)
		return
	}

	/**********************************************
	 * database
	 **********************************************/
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

	/**********************************************
	 * repository
	 **********************************************/
	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * initial administrator
	 **********************************************/
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.InitialAdmin.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("could not hash initial administrator password", "error", err)
		return
	}
	initialAdmin := &domain.User{
		Username:      cfg.InitialAdmin.Username,
		PasswordHash:  string(passwordHash),
		FullName:      cfg.InitialAdmin.FullName,
		Email:         cfg.InitialAdmin.Email,
		Role:          domain.RoleAdmin,
		NotifyChannel: domain.NotifyByEmail,
	}
	if err := repo.CreateUser(initialAdmin); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "users_username_key":
				// The initial administrator already exists.
			default:
				logger.Error("could not create initial administrator", "error", err)
				return
			}
		default:
			logger.Error("could not create initial administrator", "error", err)
			return
		}
	}

	/**********************************************
	 * rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("could not connect to rabbitmq", "error", err)
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("could not open channel", "error", err)
		return
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		notifier.QueueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("could not declare queue", "error", err)
		return
	}

	publisher := notifier.NewPublisher(cfg, ch)

	/**********************************************
	 * redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})

	/**********************************************
	 * handler
	 **********************************************/
	auditor := audit.NewSink(repo, logger)

	handler, err := handler.NewHandler(cfg, repo, publisher, rdb, auditor)
	if err != nil {
		logger.Error("could not create handler", "error", err)
		return
	}
	handler.RegisterRoutes()

	/**********************************************
	 * deadline sweeper
	 **********************************************/
	sw := sweeper.New(cfg, repo, publisher, logger)
	if err := sw.Start(); err != nil {
		logger.Error("could not start deadline sweeper", "error", err)
		return
	}
	defer sw.Stop()

	/**********************************************
	 * HTTP server
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      handler.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting server...", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("could not start server", slog.String("error", err.Error()))
			return
		}
	}()

	<-quit
	logger.Info("shutting down server...")

	ctx, cancel = context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", slog.String("error", err.Error()))
	}
	logger.Info("server stopped")
}

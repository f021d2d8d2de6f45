package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"cartellino/internal/config"
	"cartellino/internal/handler"
	"cartellino/internal/parser"
	"cartellino/internal/parser/cartellino"
	"cartellino/internal/repository/postgres"
	"cartellino/internal/router"
	"cartellino/internal/service"
	s3storage "cartellino/internal/storage/s3"
)

// @title Cartellino API
// @version 1.0
// @description Parses Italian monthly attendance timesheets into day, punch-pair and totals tables.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	timesheetRepo := postgres.NewTimesheetRepo(db)

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Initialize parsers
	var opts []cartellino.Option
	if cfg.Log.Debug() {
		opts = append(opts, cartellino.WithDebugLog(log.New(os.Stderr, "cartellino: ", log.LstdFlags)))
	}
	core := cartellino.New(opts...)
	docParser := parser.NewDocumentParser(parser.NewDefaultRegistry(), core)

	// Initialize services
	authSvc := service.NewAuthService(cfg.JWT)
	timesheetSvc := service.NewTimesheetService(timesheetRepo, s3Client, docParser, core, cfg.S3, cfg.Upload)

	// Initialize handlers
	authH := handler.NewAuthHandler(authSvc)
	timesheetH := handler.NewTimesheetHandler(timesheetSvc)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(authSvc, cfg.CORS.AllowedOrigins, authH, timesheetH, healthH)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	worker := service.NewParseQueueWorker(timesheetRepo, timesheetSvc, service.ParseQueueConfig{
		PollInterval: time.Duration(cfg.Queue.PollIntervalSecs) * time.Second,
		MaxRetries:   cfg.Queue.MaxRetries,
		Concurrency:  cfg.Queue.Concurrency,
	})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		stop()
		wg.Wait()
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	wg.Wait()
	return nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/erazemk/lumiere/internal/api"
	"github.com/erazemk/lumiere/internal/auth"
	"github.com/erazemk/lumiere/internal/config"
	"github.com/erazemk/lumiere/internal/db"
	"github.com/erazemk/lumiere/internal/live"
	"github.com/erazemk/lumiere/internal/model"
	"github.com/erazemk/lumiere/internal/store"
	"github.com/erazemk/lumiere/internal/upload"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. INFO/WARN go to stdout, ERROR goes
// to stderr. If logPath is non-empty, all levels are also written to that file.
// Returns a cleanup function that closes the log file (if opened).
func setupLogger(logPath string) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(os.Args[1:], os.Stdout)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	if err := run(cfg); err != nil {
		slog.Error("server error", "error", err)
		if closeLog != nil {
			closeLog()
		}
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, fresh, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Ensure schema exists (idempotent).
	if err := db.EnsureSchema(database); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	if fresh {
		printInitResult(cfg)
	}
	slog.Info("database ready", "path", cfg.DBPath)

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("getting JWT secret: %w", err)
	}

	if n, err := store.PurgeStationLocks(ctx, database, time.Now()); err != nil {
		return err
	} else if n > 0 {
		slog.Info("purged expired station locks", "count", n)
	}

	pins, err := auth.NewPINSet(cfg.PINs)
	if err != nil {
		return err
	}
	for _, role := range model.Roles {
		if cfg.PINs[role] == "" {
			slog.Warn("station uses the default PIN", "role", role)
		}
	}

	uploader, err := newUploader(ctx, cfg)
	if err != nil {
		return err
	}

	broker := live.NewBroker(database)
	if cfg.RedisURL != "" {
		relay, err := live.NewRelay(ctx, cfg.RedisURL, cfg.RedisChan, broker)
		if err != nil {
			return err
		}
		defer relay.Close()
		broker.SetPublisher(relay)
		go func() {
			if err := relay.Run(ctx); err != nil && ctx.Err() == nil {
				slog.Error("live relay stopped", "error", err)
			}
		}()
		slog.Info("live relay connected", "channel", cfg.RedisChan)
	}

	slog.Info("order funnel", "rules", cfg.Funnel.String())

	handler := api.NewRouter(api.Config{
		DB:          database,
		JWTSecret:   jwtSecret,
		PINs:        pins,
		Funnel:      cfg.Funnel,
		Broker:      broker,
		Uploader:    uploader,
		Location:    cfg.Location,
		AlertFor:    cfg.AlertFor,
		CORSOrigins: cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	// Graceful shutdown on SIGINT/SIGTERM. Open streams end with the base
	// context.
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	slog.Info("server stopped, closing database")
	return nil
}

// newUploader builds the image upload chain from whatever credentials are
// configured: signed Cloudinary, unsigned Cloudinary, then S3.
func newUploader(ctx context.Context, cfg *config.Config) (upload.Uploader, error) {
	var chain upload.Chain

	if cfg.Cloudinary.Signed() {
		c, err := upload.NewCloudinary(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret, cfg.Cloudinary.Folder)
		if err != nil {
			return nil, err
		}
		chain = append(chain, c)
	}
	if cfg.Cloudinary.Unsigned() {
		c, err := upload.NewUnsignedCloudinary(cfg.Cloudinary.CloudName, cfg.Cloudinary.UploadPreset, cfg.Cloudinary.Folder)
		if err != nil {
			return nil, err
		}
		chain = append(chain, c)
	}
	if cfg.S3.Bucket != "" {
		s, err := upload.NewS3(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		chain = append(chain, s)
	}

	if len(chain) == 0 {
		slog.Warn("no image upload backend configured, uploads will fail")
	}
	for _, u := range chain {
		slog.Info("image uploader enabled", "provider", u.Name())
	}
	return chain, nil
}

// printInitResult prints the first-run summary to stdout.
func printInitResult(cfg *config.Config) {
	fmt.Printf("Database created: %s\n", cfg.DBPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Station PINs:")
	for _, role := range model.Roles {
		pin := "(configured)"
		if cfg.PINs[role] == "" {
			pin = auth.DefaultPINs[role] + " (default)"
		}
		fmt.Printf("  %-10s %s\n", role, pin)
	}
	fmt.Println()
	fmt.Println("The menu is filled with the house menu the first time the admin")
	fmt.Println("station opens it.")
	fmt.Println()
}

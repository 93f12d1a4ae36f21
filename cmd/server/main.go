package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/data-explorer/client/internal/analysis"
	"github.com/data-explorer/client/internal/api"
	"github.com/data-explorer/client/internal/config"
	"github.com/data-explorer/client/internal/dashboard"
	"github.com/data-explorer/client/internal/history"
	"github.com/data-explorer/client/internal/render"
	"github.com/data-explorer/client/internal/state"
	"github.com/data-explorer/client/internal/theme"
	"github.com/data-explorer/client/internal/upload"
	"github.com/data-explorer/client/internal/web"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	exeDir := filepath.Dir(exePath)

	config.LoadDotEnv(".env", filepath.Join(exeDir, ".env"))

	// Load XML configuration
	configPath := config.ResolvePath(exeDir)
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Printf("Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg.Advanced.LogLevel, cfg.Advanced.LogFile); err != nil {
		fmt.Printf("Failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, configPath); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.AppConfig, configPath string) error {
	chartTheme, err := theme.LoadOrDefault(cfg.Theme.File)
	if err != nil {
		return fmt.Errorf("loading theme: %w", err)
	}

	maxUpload, err := cfg.MaxUploadBytes()
	if err != nil {
		return err
	}

	tmpl, err := web.Templates()
	if err != nil {
		return fmt.Errorf("parsing page templates: %w", err)
	}

	// Attempt log
	var (
		recorder upload.Recorder
		reader   api.HistoryReader
	)
	if cfg.History.Enabled {
		hist, err := history.Open(cfg.GetHistoryPath(), cfg.History.DuckDBThreads)
		if err != nil {
			return fmt.Errorf("opening upload history: %w", err)
		}
		defer hist.Close()
		recorder, reader = hist, hist
	}

	store := state.New()
	client := analysis.NewClient(analysis.Config{
		BaseURL:       cfg.Service.BaseURL,
		VisualizePath: cfg.Service.VisualizePath,
		StockPath:     cfg.Service.StockPath,
		FormField:     cfg.Service.FormField,
	}, nil)

	controller := upload.NewController(ctx, store, client, upload.Options{
		Extension:   cfg.Upload.AcceptedExtension,
		DefaultRows: cfg.Service.DefaultStockRows,
		Timeout:     cfg.RequestTimeout(),
		History:     recorder,
	})
	defer controller.Wait()

	dash := dashboard.New(store, chartTheme, render.New(), tmpl, dashboard.Options{
		Extension:   controller.Extension(),
		DefaultRows: controller.DefaultRows(),
		Busy:        controller.Busy,
	})

	// Log every visible state change
	go dash.Watch(ctx, func(v dashboard.View, notice string) {
		if notice != "" {
			slog.Warn("upload failed", "reason", notice)
			return
		}
		slog.Info("dashboard updated", "phase", v.Phase, "mode", v.Mode, "charts", v.ChartCount)
	})

	e := newServer(cfg)

	handlers := api.NewHandlers(&api.Dependencies{
		State:          store,
		Controller:     controller,
		Dashboard:      dash,
		History:        reader,
		ServiceURL:     client.VisualizeURL(),
		MaxUploadBytes: maxUpload,
		Version:        Version,
		AllowOrigins:   cfg.GetAllowOrigins(),
	})
	api.RegisterRoutes(e, handlers)

	if err := web.RegisterStaticRoutes(e); err != nil {
		return fmt.Errorf("registering static routes: %w", err)
	}

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	printBanner(cfg, configPath, chartTheme)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.StartServer(s)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newServer(cfg *config.AppConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	api.SetupMiddleware(e, cfg.Advanced.Debug)

	// Configure middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Skip logging if disabled in config
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" || path == "/api/ws" || strings.HasPrefix(path, web.StaticPrefix)
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	if cfg.Server.EnableGzip {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Skipper: func(c echo.Context) bool {
				return c.Request().URL.Path == "/api/ws"
			},
		}))
	}

	// Body limit middleware
	if cfg.Server.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	}

	// CORS configuration
	if cfg.Server.EnableCORS {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.GetAllowOrigins(),
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	return e
}

func printBanner(cfg *config.AppConfig, configPath string, t theme.Theme) {
	historyPath := "disabled"
	if cfg.History.Enabled {
		historyPath = cfg.GetHistoryPath()
	}
	themeName := "built-in"
	if cfg.Theme.File != "" {
		themeName = cfg.Theme.File
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Data Explorer                                   ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Service:   %-46s║\n", cfg.Service.BaseURL)
	fmt.Printf("║  History:   %-46s║\n", historyPath)
	fmt.Printf("║  Theme:     %-46s║\n", themeName)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	slog.Info("server starting", "addr", cfg.GetServerAddr(), "font", t.FontFamily)
	fmt.Printf("Open http://localhost:%d in your browser\n\n", cfg.Server.Port)
}

package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"runway_view/internal/api"
	"runway_view/internal/client"
	"runway_view/internal/config"
	"runway_view/internal/database"
	"runway_view/internal/forms"
	"runway_view/internal/loop"
	"runway_view/internal/scheduler"
	"runway_view/internal/tasks"
	"runway_view/internal/view"
	"runway_view/internal/web"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
)

const (
	airportBatchSize = 5000
	shutdownTimeout  = 5 * time.Second
)

// Daemon represents the main daemon structure
type Daemon struct {
	cancel    context.CancelFunc
	cfg       *config.Config
	database  *database.DB
	loop      *loop.Loop
	scheduler *scheduler.Scheduler
	server    *http.Server
	group     *errgroup.Group
	addr      net.Addr
}

// New opens the database, seeds it if empty and wires every component
func New(cfg *config.Config) (*Daemon, error) {
	db, err := database.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := seed(db, cfg); err != nil {
		db.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	eventLoop := loop.New(ctx)

	lookup := client.New(client.Options{
		BaseURL:   cfg.LookupURL,
		Timeout:   cfg.RequestTimeout,
		Retries:   cfg.RequestRetries,
		CacheSize: cfg.Autocomplete.CacheSize,
		CacheTTL:  cfg.Autocomplete.CacheTTL,
	})

	formOpts := forms.Options{
		Timeout:  cfg.RequestTimeout,
		MinChars: cfg.Autocomplete.MinChars,
	}

	ui := web.NewServer(eventLoop,
		view.MapOptions{
			Zoom:        cfg.Map.Zoom,
			TileURL:     cfg.Map.TileURL,
			Attribution: cfg.Map.Attribution,
		},
		forms.NewRunwayForm(ctx, eventLoop, lookup, formOpts),
		forms.NewRunwayConfigForm(ctx, eventLoop, lookup, formOpts),
	)

	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	api.NewHandler(db.AirportRepository(), db.TAFRepository(), cfg.DestinationICAOs).Routes(router)
	ui.Routes(router)

	sched := scheduler.New(ctx)
	sched.AddTask(tasks.NewTAFReload(db.TAFRepository(), cfg.TAFCSV, cfg.TAFReload))
	sched.AddTask(tasks.NewViewExpiry(ui, cfg.ViewTTL))

	return &Daemon{
		cancel:    cancel,
		cfg:       cfg,
		database:  db,
		loop:      eventLoop,
		scheduler: sched,
		server: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		group: &errgroup.Group{},
	}, nil
}

// seed loads the airport catalog when the table is empty.
// TAF end times are loaded by the reload task.
func seed(db *database.DB, cfg *config.Config) error {
	airports := db.AirportRepository()

	populated, err := airports.IsTablePopulated()
	if err != nil {
		return fmt.Errorf("failed to check airports table: %w", err)
	}

	if populated {
		slog.Info("Airports table is already populated")
	} else if cfg.AirportsCSV != "" {
		slog.Info("Airports table is empty, loading from CSV", "csv_path", cfg.AirportsCSV)
		if err := airports.LoadFromCSV(cfg.AirportsCSV, airportBatchSize); err != nil {
			return fmt.Errorf("failed to load airports from CSV: %w", err)
		}
		slog.Info("Successfully loaded airport catalog from CSV")
	}

	return nil
}

// Start begins serving; it fails if the listen address cannot be bound
func (d *Daemon) Start() error {
	slog.Info("Starting daemon", "listen_addr", d.cfg.ListenAddr)

	ln, err := net.Listen("tcp", d.cfg.ListenAddr)
	if err != nil {
		d.cancel()
		return fmt.Errorf("failed to listen on %s: %w", d.cfg.ListenAddr, err)
	}

	d.addr = ln.Addr()
	d.loop.Start()
	d.scheduler.Start()

	d.group.Go(func() error {
		if err := d.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "error", err)
			return err
		}
		return nil
	})

	slog.Info("Daemon started successfully")
	return nil
}

// Addr returns the bound listen address, nil before Start
func (d *Daemon) Addr() net.Addr {
	return d.addr
}

// Stop gracefully stops the daemon
func (d *Daemon) Stop() error {
	slog.Info("Stopping daemon")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := d.server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error shutting down HTTP server", "error", err)
	}
	serveErr := d.group.Wait()

	d.cancel()
	d.scheduler.Stop()
	d.loop.Stop()

	if err := d.database.Close(); err != nil {
		slog.Error("Error closing database", "error", err)
	}

	slog.Info("Daemon stopped")
	return serveErr
}

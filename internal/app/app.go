package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"objectmonitor/internal/classmap"
	"objectmonitor/internal/config"
	"objectmonitor/internal/logger"
	"objectmonitor/internal/metrics"
	"objectmonitor/internal/middleware"
	"objectmonitor/internal/repository/sqlite"
	"objectmonitor/internal/route"
	"objectmonitor/internal/service"
	"objectmonitor/internal/service/ai"
	"objectmonitor/internal/service/ai/remote"
	"objectmonitor/internal/service/camera"
	"objectmonitor/internal/service/hardware"
	"objectmonitor/internal/service/notify"
	"objectmonitor/internal/service/pipeline"
	"objectmonitor/internal/service/stats"
	"objectmonitor/internal/service/storage"
	"objectmonitor/internal/service/websocket"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config        *config.Config
	logger        *logger.Logger
	metrics       *metrics.Metrics
	auth          *middleware.Auth
	db            *sqlite.DB
	alertRepo     *sqlite.AlertRepository
	detectionRepo *sqlite.DetectionRepository
	bufferService *storage.BufferService
	hubService    *websocket.HubService
	manager       *service.Manager

	// closers run in reverse order on shutdown
	closers []func() error
}

func NewApp() (*App, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &App{
		config:  cfg,
		logger:  logger.NewLogger(cfg),
		metrics: metrics.New(),
	}
	if err := a.init(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init() error {
	cfg, log := a.config, a.logger

	auth, err := middleware.NewAuth(cfg)
	if err != nil {
		return err
	}
	a.auth = auth

	source, err := camera.Open(cfg.CameraSource, log)
	if err != nil {
		return fmt.Errorf("open camera %q: %w", cfg.CameraSource, err)
	}
	a.onClose(source.Close)

	detector, err := a.newDetector()
	if err != nil {
		return err
	}

	motion := a.newMotionSensor()

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.db = db
	a.onClose(db.Close)
	a.alertRepo = sqlite.NewAlertRepository(db)
	a.detectionRepo = sqlite.NewDetectionRepository(db)

	a.bufferService = storage.NewBufferService(cfg, log, a.alertRepo, a.metrics)
	a.hubService = websocket.NewHubService(log, a.metrics.StatsViewers)

	deps := service.Dependencies{
		Source:       source,
		Detector:     detector,
		Mapper:       classmap.New(cfg.ForeignObjectLabel, cfg.ForeignObjectClasses),
		Store:        stats.NewStore(),
		Actuator:     a.newActuator(),
		Encoder:      pipeline.NewJPEGEncoder(cfg.JPEGQuality),
		Snapshots:    a.bufferService,
		Viewers:      a.hubService,
		Metrics:      a.metrics,
		SkipInterval: cfg.SkipFrames,
	}
	// Nil *MotionSensor must not end up in the interface.
	if motion != nil {
		deps.Motion = motion
	}

	a.manager, err = service.NewManager(deps, log)
	return err
}

func (a *App) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

func (a *App) newDetector() (pipeline.Detector, error) {
	cfg := a.config
	switch cfg.Detector {
	case "remote":
		a.logger.Info("🤖 Using remote detector at %s", cfg.DetectorURL)
		return remote.New(cfg.DetectorURL, cfg.ConfidenceThreshold, cfg.NMSThreshold, cfg.InferenceSize), nil
	default:
		ds, err := ai.NewDetectorService(cfg, a.logger)
		if err != nil {
			return nil, fmt.Errorf("load detector: %w", err)
		}
		a.onClose(ds.Close)
		return ds, nil
	}
}

// newActuator collects the configured alert outputs. A missing GPIO chip only
// disables the buzzer; MQTT levels wait for the broker without stalling the pipeline.
func (a *App) newActuator() pipeline.Actuator {
	cfg, log := a.config, a.logger
	var outputs pipeline.MultiActuator

	if cfg.BuzzerPin != "" {
		buzzer, err := hardware.OpenBuzzer(cfg.BuzzerPin)
		if err != nil {
			log.Warning("Buzzer disabled: %v", err)
		} else {
			log.Info("🔔 Buzzer on %s", cfg.BuzzerPin)
			a.onClose(buzzer.Close)
			outputs = append(outputs, buzzer)
		}
	}

	if cfg.MQTTBroker != "" {
		publisher, client, err := notify.Dial(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopic)
		if err != nil {
			log.Warning("MQTT alerts disabled: %v", err)
		} else {
			log.Info("📡 Publishing alerts to %s on %s", cfg.MQTTBroker, cfg.MQTTTopic)
			a.onClose(func() error {
				client.Disconnect(250)
				return nil
			})
			outputs = append(outputs, publisher)
		}
	}

	switch len(outputs) {
	case 0:
		return pipeline.NopActuator{}
	case 1:
		return outputs[0]
	default:
		return outputs
	}
}

func (a *App) newMotionSensor() *hardware.MotionSensor {
	if a.config.MotionPin == "" {
		return nil
	}
	sensor, err := hardware.OpenMotionSensor(a.config.MotionPin)
	if err != nil {
		a.logger.Warning("Motion sensor disabled: %v", err)
		return nil
	}
	a.logger.Info("👀 Motion sensor on %s", a.config.MotionPin)
	return sensor
}

// Run serves HTTP until ctx is cancelled or SIGINT/SIGTERM arrives, then
// flushes buffered snapshots and releases the camera and devices.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.Close()

	// Start background services
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.bufferService.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		a.hubService.Run(ctx)
	}()

	// Setup routes
	router := route.SetupRoutes(route.Deps{
		Config:        a.config,
		Logger:        a.logger,
		Manager:       a.manager,
		Hub:           a.hubService,
		Auth:          a.auth,
		AlertRepo:     a.alertRepo,
		DetectionRepo: a.detectionRepo,
		Metrics:       a.metrics.Handler(),
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Port),
		Handler: router,
		// Streams end with the server context.
		BaseContext:       func(net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("🚀 Object Monitor\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("🎥 Camera: %s\n", a.config.CameraSource)
	fmt.Printf("🔑 Auth: %v\n", a.auth.Enabled())
	fmt.Printf("📁 Snapshots: %s\n", a.config.SnapshotDirectory)
	fmt.Printf("🤖 Detector: %s\n", a.config.Detector)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
		stop()
	case <-ctx.Done():
		a.logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("HTTP shutdown: %v", err)
		}
		cancel()
	}

	// Final snapshot flush must finish before the database closes.
	wg.Wait()
	return serveErr
}

// Close releases devices, the camera and the database, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.logger.Error("Shutdown errors: %v", err)
	}
	a.logger.Close()
	return errors.Join(errs...)
}

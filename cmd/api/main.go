package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/careops/clinicops/internal/config"
	handlerv1 "github.com/careops/clinicops/internal/handler/v1"
	"github.com/careops/clinicops/internal/repository"
	"github.com/careops/clinicops/internal/rules"
	"github.com/careops/clinicops/internal/scheduling"
	"github.com/careops/clinicops/internal/service"
	"github.com/careops/clinicops/internal/wizard"
	"github.com/careops/clinicops/pkg/auth"
	"github.com/careops/clinicops/pkg/database"
	"github.com/careops/clinicops/pkg/logger"
	"github.com/careops/clinicops/pkg/metrics"
	"github.com/careops/clinicops/pkg/tracer"
	"go.uber.org/zap"
)

const wizardSessionTTL = 30 * time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting clinicops-api",
		zap.String("env", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}

	if err := database.Migrate(db, log); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Scheduling.Timezone)
	if err != nil {
		return fmt.Errorf("loading clinic timezone: %w", err)
	}
	shiftDefaults, err := shiftWindows(cfg.Scheduling)
	if err != nil {
		return fmt.Errorf("parsing shift windows: %w", err)
	}

	collector := metrics.NewCollector("clinicops")

	// Repositories
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	medicineRepo := repository.NewMedicineRepository(db)
	protocolRepo := repository.NewProtocolRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	doctorRepo := repository.NewDoctorRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	treatmentRepo := repository.NewTreatmentRepository(db)

	// Services
	jwtManager := auth.NewJWTManager(cfg.JWT)
	auditSvc := service.NewAuditService(auditRepo, log)
	defer auditSvc.Shutdown()

	authSvc := service.NewAuthService(userRepo, jwtManager, log)
	schedulerSvc := service.NewSchedulingService(
		serviceRepo, doctorRepo, appointmentRepo,
		shiftDefaults, cfg.Scheduling.SlotBreak, loc, log,
	)
	bookingSvc := service.NewBookingService(appointmentRepo, serviceRepo, patientRepo, auditSvc, log)
	treatmentSvc := service.NewTreatmentService(treatmentRepo, patientRepo, auditSvc, log)
	rulesClient := rules.NewClient(cfg.Rules, log)

	store := wizard.NewStore(wizardSessionTTL)
	defer store.Close()

	handlers := &handlerv1.Handlers{
		Auth:       handlerv1.NewAuthHandler(authSvc),
		Catalog:    handlerv1.NewCatalogHandler(serviceRepo, medicineRepo, protocolRepo),
		Scheduling: handlerv1.NewSchedulingHandler(schedulerSvc, collector),
		Appointments: handlerv1.NewAppointmentHandler(
			bookingSvc, collector, loc,
		),
		Treatments: handlerv1.NewTreatmentHandler(treatmentSvc, rulesClient, loc),
		BookingWizard: handlerv1.NewBookingWizardHandler(
			store, schedulerSvc, bookingSvc, collector, log,
		),
		Prescriptions: handlerv1.NewPrescriptionWizardHandler(
			store, protocolRepo, medicineRepo, rulesClient,
			treatmentSvc, bookingSvc, collector, loc, log,
		),
	}

	router := handlerv1.NewRouter(cfg, handlers, jwtManager, collector, log)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

// shiftWindows builds the clinic's default shift table from configuration.
func shiftWindows(cfg config.SchedulingConfig) ([]scheduling.ShiftWindow, error) {
	mStart, err := scheduling.ParseClock(cfg.MorningStart)
	if err != nil {
		return nil, fmt.Errorf("morning start: %w", err)
	}
	mEnd, err := scheduling.ParseClock(cfg.MorningEnd)
	if err != nil {
		return nil, fmt.Errorf("morning end: %w", err)
	}
	aStart, err := scheduling.ParseClock(cfg.AfternoonStart)
	if err != nil {
		return nil, fmt.Errorf("afternoon start: %w", err)
	}
	aEnd, err := scheduling.ParseClock(cfg.AfternoonEnd)
	if err != nil {
		return nil, fmt.Errorf("afternoon end: %w", err)
	}

	return []scheduling.ShiftWindow{
		{Shift: scheduling.ShiftMorning, Start: mStart, End: mEnd},
		{Shift: scheduling.ShiftAfternoon, Start: aStart, End: aEnd},
	}, nil
}

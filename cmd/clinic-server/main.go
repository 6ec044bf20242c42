package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/smilecare/clinic/internal/config"
	"github.com/smilecare/clinic/internal/domain/appointment"
	"github.com/smilecare/clinic/internal/domain/catalog"
	"github.com/smilecare/clinic/internal/domain/chart"
	"github.com/smilecare/clinic/internal/domain/patient"
	"github.com/smilecare/clinic/internal/domain/treatment"
	"github.com/smilecare/clinic/internal/platform/auth"
	"github.com/smilecare/clinic/internal/platform/db"
	"github.com/smilecare/clinic/internal/platform/middleware"
	"github.com/smilecare/clinic/internal/platform/notification"
)

// treatmentRefAdapter adapts the treatment service to the
// appointment.TreatmentSource interface. The appointment package only needs
// the notes and dates of a patient's treatments to decide which completed
// appointments are already recorded; the adapter keeps it from importing the
// treatment package directly.
type treatmentRefAdapter struct {
	svc *treatment.Service
}

func (a *treatmentRefAdapter) ListRefs(ctx context.Context, patientID uuid.UUID) ([]appointment.TreatmentRef, error) {
	records, err := a.svc.ListByPatient(ctx, patientID, nil)
	if err != nil {
		return nil, err
	}
	refs := make([]appointment.TreatmentRef, 0, len(records))
	for _, r := range records {
		refs = append(refs, appointment.TreatmentRef{
			Notes: r.Notes,
			Date:  r.TreatmentDate,
		})
	}
	return refs, nil
}

// patientContacts adapts the patient service to the notification.Contacter
// interface, flattening the record down to what a delivery needs.
type patientContacts struct {
	svc *patient.Service
}

func (a *patientContacts) Contact(ctx context.Context, patientID uuid.UUID) (notification.Contact, error) {
	p, err := a.svc.Get(ctx, patientID)
	if err != nil {
		return notification.Contact{}, err
	}
	c := notification.Contact{
		PatientID: p.ID,
		Name:      p.FirstName + " " + p.LastName,
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	return c, nil
}

// appointmentInfoSource adapts the appointment service to the
// notification.AppointmentSource interface.
type appointmentInfoSource struct {
	svc *appointment.Service
}

func (a *appointmentInfoSource) Info(ctx context.Context, appointmentID uuid.UUID) (notification.AppointmentInfo, error) {
	appt, err := a.svc.Get(ctx, appointmentID)
	if err != nil {
		return notification.AppointmentInfo{}, err
	}
	return notification.AppointmentInfo{
		PatientID: appt.PatientID,
		Branch:    appt.Branch,
		Date:      appt.Date.Format("2006-01-02"),
		Time:      appt.Time,
	}, nil
}

// treatmentNotifier sends a treatment summary to the patient after a save.
// Delivery is best-effort; patients without an email address are skipped.
type treatmentNotifier struct {
	svc      *notification.Service
	contacts *patientContacts
}

func (n *treatmentNotifier) TreatmentSaved(ctx context.Context, patientID uuid.UUID, procedures []string, date time.Time) {
	c, err := n.contacts.Contact(ctx, patientID)
	if err != nil || c.Email == "" {
		return
	}
	_, _ = n.svc.TreatmentSummary(ctx, c, date.Format("2006-01-02"), procedures)
}

// procedureVocabulary answers procedure-name lookups against the service
// catalog. Names are compared case-insensitively to match the catalog's
// own duplicate check.
type procedureVocabulary struct {
	svc *catalog.Service
}

func (v *procedureVocabulary) Known(ctx context.Context, name string) (bool, error) {
	names, err := v.svc.Names(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true, nil
		}
	}
	return false, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Dental clinic management server",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			applied, err := migrator.Up(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Applied %d migration(s)\n", applied)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			SigningKey: []byte(cfg.JWTSecret),
		}))
	}

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"clinic":  cfg.ClinicName,
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	apiV1 := e.Group("/api/v1")

	// Patient domain
	patientRepo := patient.NewRepoPG(pool)
	patientSvc := patient.NewService(patientRepo)
	patientHandler := patient.NewHandler(patientSvc)
	patientHandler.RegisterRoutes(apiV1)

	// Service catalog domain
	catalogRepo := catalog.NewRepoPG(pool)
	catalogSvc := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(catalogSvc)
	catalogHandler.RegisterRoutes(apiV1)

	// Dental chart domain
	chartRepo := chart.NewRepoPG(pool)
	chartSvc := chart.NewService(chartRepo)
	chartHandler := chart.NewHandler(chartSvc)
	chartHandler.RegisterRoutes(apiV1)

	// Treatment domain. The chart service doubles as the treatment service's
	// chart updater so saved records are reflected on the patient's chart,
	// and the catalog backs procedure-name validation.
	treatmentRepo := treatment.NewRepoPG(pool)
	treatmentSvc := treatment.NewService(treatmentRepo, chartSvc)
	treatmentSvc.SetVocabulary(&procedureVocabulary{svc: catalogSvc})
	treatmentHandler := treatment.NewHandler(treatmentSvc)
	treatmentHandler.RegisterRoutes(apiV1)

	// Appointment domain. Treatments feed back into appointment coverage
	// through the adapter so already-recorded appointments are filtered out
	// of the treatment form's appointment picker.
	treatmentSource := &treatmentRefAdapter{svc: treatmentSvc}
	appointmentRepo := appointment.NewRepoPG(pool)
	appointmentSvc := appointment.NewService(appointmentRepo, treatmentSource)
	appointmentHandler := appointment.NewHandler(appointmentSvc)
	appointmentHandler.RegisterRoutes(apiV1)

	// Notifications (appointment reminders, treatment summaries, recalls).
	// Mock senders record deliveries until a real gateway is configured.
	notifySvc := notification.NewService(&notification.MockEmailSender{}, &notification.MockSMSSender{})
	contacts := &patientContacts{svc: patientSvc}
	notifyHandler := notification.NewHandler(notifySvc, contacts, &appointmentInfoSource{svc: appointmentSvc})
	notifyHandler.RegisterRoutes(apiV1)
	treatmentSvc.SetNotifier(&treatmentNotifier{svc: notifySvc, contacts: contacts})

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

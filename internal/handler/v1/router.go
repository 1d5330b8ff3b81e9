package v1

import (
	"net/http"

	"github.com/careops/clinicops/internal/config"
	"github.com/careops/clinicops/internal/domain"
	"github.com/careops/clinicops/internal/middleware"
	"github.com/careops/clinicops/pkg/auth"
	"github.com/careops/clinicops/pkg/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers bundles everything the v1 router mounts.
type Handlers struct {
	Auth          *AuthHandler
	Catalog       *CatalogHandler
	Scheduling    *SchedulingHandler
	Appointments  *AppointmentHandler
	Treatments    *TreatmentHandler
	BookingWizard *BookingWizardHandler
	Prescriptions *PrescriptionWizardHandler
}

func NewRouter(cfg *config.Config, h *Handlers, jwtManager *auth.JWTManager, collector *metrics.Collector, log *zap.Logger) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log, collector))
	r.Use(middleware.CORS(cfg.CORS))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": cfg.App.Version})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := r.Group("/api/v1")

	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)

	authed := api.Group("")
	authed.Use(middleware.Authenticate(jwtManager))

	authed.POST("/auth/password", h.Auth.ChangePassword)

	// Reference data
	authed.GET("/services", h.Catalog.ListServices)
	authed.GET("/services/:id", h.Catalog.GetService)
	authed.GET("/medicines", h.Catalog.ListMedicines)
	authed.GET("/protocols", h.Catalog.ListProtocols)
	authed.GET("/protocols/:id", h.Catalog.GetProtocol)

	// Availability
	authed.GET("/services/:id/slots", h.Scheduling.Slots)
	authed.GET("/doctors/available", h.Scheduling.AvailableDoctors)

	// Appointments
	authed.GET("/appointments", h.Appointments.List)
	authed.GET("/appointments/:id", h.Appointments.Get)
	authed.POST("/appointments/:id/cancel", h.Appointments.Cancel)

	staff := authed.Group("")
	staff.Use(middleware.RequireRoles(domain.RoleStaff, domain.RoleAdmin))
	staff.POST("/appointments/:id/confirm", h.Appointments.Confirm)
	staff.POST("/appointments/:id/complete", h.Appointments.Complete)
	staff.POST("/appointments/:id/pay", h.Appointments.MarkPaid)

	// Booking wizard
	bw := authed.Group("/wizard/bookings")
	bw.POST("", h.BookingWizard.Start)
	bw.GET("/:id", h.BookingWizard.State)
	bw.POST("/:id/service", h.BookingWizard.SelectService)
	bw.POST("/:id/date", h.BookingWizard.SlotsForDate)
	bw.POST("/:id/slot", h.BookingWizard.SelectSlot)
	bw.GET("/:id/doctors", h.BookingWizard.Doctors)
	bw.POST("/:id/doctor", h.BookingWizard.SelectDoctor)
	bw.POST("/:id/back", h.BookingWizard.Back)
	bw.POST("/:id/confirm", h.BookingWizard.Confirm)
	bw.DELETE("/:id", h.BookingWizard.Cancel)

	// Treatments
	authed.GET("/treatments", h.Treatments.List)
	authed.GET("/treatments/:id", h.Treatments.Get)

	clinicians := authed.Group("")
	clinicians.Use(middleware.RequireRoles(domain.RoleDoctor, domain.RoleAdmin))
	clinicians.PATCH("/treatments/:id", h.Treatments.Update)
	clinicians.GET("/patients/:patientId/treatment-conflicts", h.Treatments.Conflicts)

	admins := authed.Group("")
	admins.Use(middleware.RequireRoles(domain.RoleAdmin))
	admins.DELETE("/treatments/:id", h.Treatments.Delete)

	// Prescription wizard
	pw := clinicians.Group("/wizard/prescriptions")
	pw.POST("", h.Prescriptions.Start)
	pw.GET("/:id", h.Prescriptions.State)
	pw.POST("/:id/protocol", h.Prescriptions.SelectProtocol)
	pw.PATCH("/:id/lines/:index", h.Prescriptions.EditLine)
	pw.DELETE("/:id/lines/:index", h.Prescriptions.RemoveLine)
	pw.POST("/:id/custom", h.Prescriptions.AddCustom)
	pw.PATCH("/:id/custom/:index", h.Prescriptions.EditCustom)
	pw.DELETE("/:id/custom/:index", h.Prescriptions.RemoveCustom)
	pw.POST("/:id/validate", h.Prescriptions.Validate)
	pw.POST("/:id/create", h.Prescriptions.Create)
	pw.DELETE("/:id", h.Prescriptions.Cancel)

	return r
}

package notification

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/smilecare/clinic/internal/platform/auth"
)

// Contacter resolves a patient into a reachable Contact. The patient service
// satisfies this through an adapter wired in main.
type Contacter interface {
	Contact(ctx context.Context, patientID uuid.UUID) (Contact, error)
}

// AppointmentInfo is the slice of an appointment a notification needs.
type AppointmentInfo struct {
	PatientID uuid.UUID
	Branch    string
	Date      string
	Time      string
}

// AppointmentSource resolves an appointment id into its notification fields.
type AppointmentSource interface {
	Info(ctx context.Context, appointmentID uuid.UUID) (AppointmentInfo, error)
}

type Handler struct {
	svc      *Service
	patients Contacter
	appts    AppointmentSource
}

func NewHandler(svc *Service, patients Contacter, appts AppointmentSource) *Handler {
	return &Handler{svc: svc, patients: patients, appts: appts}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := api.Group("", auth.RequireRole(auth.RoleDentist, auth.RoleAssistant, auth.RoleReceptionist))
	staff.GET("/patients/:patientID/notifications", h.ListByPatient)
	staff.POST("/appointments/:id/reminder", h.SendReminder)
	staff.POST("/appointments/:id/confirmation", h.SendConfirmation)
	staff.POST("/patients/:patientID/recall", h.SendRecall)
	staff.POST("/notifications/:id/retry", h.Retry)
}

// resolveAppointment loads the appointment and the contact of its patient.
func (h *Handler) resolveAppointment(c echo.Context) (AppointmentInfo, Contact, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return AppointmentInfo{}, Contact{}, echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	info, err := h.appts.Info(c.Request().Context(), id)
	if err != nil {
		return AppointmentInfo{}, Contact{}, echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	contact, err := h.patients.Contact(c.Request().Context(), info.PatientID)
	if err != nil {
		return AppointmentInfo{}, Contact{}, echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return info, contact, nil
}

func (h *Handler) SendReminder(c echo.Context) error {
	info, contact, err := h.resolveAppointment(c)
	if err != nil {
		return err
	}
	m, err := h.svc.AppointmentReminder(c.Request().Context(), contact, info.Branch, info.Date, info.Time)
	if m == nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	// A failed delivery is still logged and retriable; report the message.
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) SendConfirmation(c echo.Context) error {
	info, contact, err := h.resolveAppointment(c)
	if err != nil {
		return err
	}
	m, err := h.svc.AppointmentConfirmed(c.Request().Context(), contact, info.Branch, info.Date, info.Time)
	if m == nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) SendRecall(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	contact, err := h.patients.Contact(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	m, err := h.svc.RecallDue(c.Request().Context(), contact)
	if m == nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	return c.JSON(http.StatusOK, h.svc.ListByPatient(c.Request().Context(), patientID))
}

func (h *Handler) Retry(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid notification id")
	}
	m, err := h.svc.Retry(c.Request().Context(), id)
	if m == nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, m)
}

// Package notification delivers clinic messages to patients over email and
// SMS: appointment reminders and confirmations, treatment summaries, and
// recall notices. Every message is kept in an in-memory log keyed to the
// patient so the front desk can see what was sent and retry failures.
package notification

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Channel is the delivery channel of a message.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Event names the clinic occurrence a message was sent for.
type Event string

const (
	EventAppointmentReminder  Event = "appointment_reminder"
	EventAppointmentConfirmed Event = "appointment_confirmed"
	EventTreatmentSummary     Event = "treatment_summary"
	EventRecallDue            Event = "recall_due"
)

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Contact is the reachable identity of a patient. Name is used in message
// bodies; Email and Phone select the channel.
type Contact struct {
	PatientID uuid.UUID
	Name      string
	Email     string
	Phone     string
}

// Message is one delivered (or attempted) patient notification.
type Message struct {
	ID        uuid.UUID  `json:"id"`
	PatientID uuid.UUID  `json:"patient_id"`
	Event     Event      `json:"event"`
	Channel   Channel    `json:"channel"`
	Recipient string     `json:"recipient"`
	Subject   string     `json:"subject,omitempty"`
	Body      string     `json:"body"`
	Status    string     `json:"status"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
}

// EmailSender delivers email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers SMS messages.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// EmailMessage is one recorded mock email delivery.
type EmailMessage struct {
	To      string
	Subject string
	Body    string
}

// MockEmailSender records emails instead of delivering them. It stands in
// until a real mail gateway is configured.
type MockEmailSender struct {
	mu   sync.Mutex
	Sent []EmailMessage
	Fail error
}

func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.Sent = append(m.Sent, EmailMessage{To: to, Subject: subject, Body: body})
	return nil
}

// SMSMessage is one recorded mock SMS delivery.
type SMSMessage struct {
	To   string
	Body string
}

// MockSMSSender records SMS messages instead of delivering them.
type MockSMSSender struct {
	mu   sync.Mutex
	Sent []SMSMessage
	Fail error
}

func (m *MockSMSSender) SendSMS(_ context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.Sent = append(m.Sent, SMSMessage{To: to, Body: body})
	return nil
}

// Service composes and delivers clinic messages and keeps the per-patient
// message log.
type Service struct {
	email EmailSender
	sms   SMSSender
	mu    sync.RWMutex
	log   map[uuid.UUID]*Message
}

func NewService(email EmailSender, sms SMSSender) *Service {
	return &Service{
		email: email,
		sms:   sms,
		log:   make(map[uuid.UUID]*Message),
	}
}

// AppointmentReminder emails the patient a reminder for an upcoming visit.
func (s *Service) AppointmentReminder(ctx context.Context, c Contact, branch, date, at string) (*Message, error) {
	subject := "Appointment reminder"
	body := fmt.Sprintf("Dear %s, this is a reminder of your appointment on %s at %s at our %s branch.",
		c.Name, date, at, branch)
	return s.deliver(ctx, c, EventAppointmentReminder, ChannelEmail, subject, body)
}

// AppointmentConfirmed emails the patient that a requested appointment was
// approved.
func (s *Service) AppointmentConfirmed(ctx context.Context, c Contact, branch, date, at string) (*Message, error) {
	subject := "Appointment confirmed"
	body := fmt.Sprintf("Dear %s, your appointment at our %s branch on %s at %s has been confirmed.",
		c.Name, branch, date, at)
	return s.deliver(ctx, c, EventAppointmentConfirmed, ChannelEmail, subject, body)
}

// TreatmentSummary emails the patient a recap of the procedures performed
// during a visit.
func (s *Service) TreatmentSummary(ctx context.Context, c Contact, visitDate string, procedures []string) (*Message, error) {
	subject := "Your visit summary"
	body := fmt.Sprintf("Dear %s, here is a summary of your visit on %s: %s. Your dentist will discuss any follow-up at your next appointment.",
		c.Name, visitDate, strings.Join(procedures, ", "))
	return s.deliver(ctx, c, EventTreatmentSummary, ChannelEmail, subject, body)
}

// RecallDue texts the patient that a routine checkup is due.
func (s *Service) RecallDue(ctx context.Context, c Contact) (*Message, error) {
	body := fmt.Sprintf("Hi %s, it has been a while since your last checkup. Reply or call the clinic to schedule one.", c.Name)
	return s.deliver(ctx, c, EventRecallDue, ChannelSMS, "", body)
}

// deliver resolves the recipient address, dispatches the message and logs
// the outcome. A patient without an address for the channel is an error
// before anything is logged; a delivery failure is logged as failed and
// returned alongside the message so it can be retried.
func (s *Service) deliver(ctx context.Context, c Contact, event Event, channel Channel, subject, body string) (*Message, error) {
	m := &Message{
		ID:        uuid.New(),
		PatientID: c.PatientID,
		Event:     event,
		Channel:   channel,
		Subject:   subject,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	switch channel {
	case ChannelEmail:
		if c.Email == "" {
			return nil, fmt.Errorf("patient %s has no email address on file", c.PatientID)
		}
		m.Recipient = c.Email
	case ChannelSMS:
		if c.Phone == "" {
			return nil, fmt.Errorf("patient %s has no phone number on file", c.PatientID)
		}
		m.Recipient = c.Phone
	default:
		return nil, fmt.Errorf("unsupported channel: %s", channel)
	}

	err := s.dispatch(ctx, m)

	s.mu.Lock()
	s.log[m.ID] = m
	s.mu.Unlock()

	return m, err
}

func (s *Service) dispatch(ctx context.Context, m *Message) error {
	var err error
	switch m.Channel {
	case ChannelEmail:
		err = s.email.SendEmail(ctx, m.Recipient, m.Subject, m.Body)
	case ChannelSMS:
		err = s.sms.SendSMS(ctx, m.Recipient, m.Body)
	}
	if err != nil {
		m.Status = StatusFailed
		m.Error = err.Error()
		return err
	}
	m.Status = StatusSent
	m.Error = ""
	sentAt := time.Now().UTC()
	m.SentAt = &sentAt
	return nil
}

// Get returns a logged message by id.
func (s *Service) Get(_ context.Context, id uuid.UUID) (*Message, error) {
	s.mu.RLock()
	m, ok := s.log[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("notification %s not found", id)
	}
	return m, nil
}

// ListByPatient returns the patient's messages, newest first.
func (s *Service) ListByPatient(_ context.Context, patientID uuid.UUID) []*Message {
	s.mu.RLock()
	var result []*Message
	for _, m := range s.log {
		if m.PatientID == patientID {
			result = append(result, m)
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// Retry re-dispatches a failed message to its original recipient.
func (s *Service) Retry(ctx context.Context, id uuid.UUID) (*Message, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Status != StatusFailed {
		return nil, fmt.Errorf("notification %s is %s, only failed messages can be retried", id, m.Status)
	}
	return m, s.dispatch(ctx, m)
}

// Package mailer sends appointment emails with optional calendar invites.
// Sending is always best effort from the coordinator's point of view; the
// coordinator invokes it asynchronously and only logs failures.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"time"

	"github.com/campustrade/backend/internal/model"
	"github.com/rs/zerolog"
)

const (
	KindCreated   = "created"
	KindUpdated   = "updated"
	KindCancelled = "cancelled"
)

// Directory resolves a user id to an email address. Backed by the auth
// provider in production, by a fixture in tests.
type Directory interface {
	Email(ctx context.Context, uid string) (string, error)
}

// SMTPMailer sends via a plain SMTP endpoint.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
	dir      Directory
	log      zerolog.Logger
}

func NewSMTPMailer(host, port, username, password, from string, dir Directory, log zerolog.Logger) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		dir:      dir,
		log:      log,
	}
}

// SendAppointment emails both parties about an appointment transition.
// Calendar invites are attached for created/updated, never for cancelled.
func (m *SMTPMailer) SendAppointment(ctx context.Context, kind string, appt *model.Appointment, item *model.Item) error {
	recipients, err := m.resolveRecipients(ctx, appt)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		return fmt.Errorf("no resolvable recipients for appointment %s", appt.ID)
	}

	subject, body := composeMessage(kind, appt, item)
	var ics string
	if kind != KindCancelled {
		ics = BuildICS(appt, item)
	}
	msg, err := buildMIME(m.from, recipients, subject, body, ics)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(m.host, m.port)
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	return smtp.SendMail(addr, auth, m.from, recipients, msg)
}

func (m *SMTPMailer) resolveRecipients(ctx context.Context, appt *model.Appointment) ([]string, error) {
	if m.dir == nil {
		return nil, fmt.Errorf("no user directory configured")
	}
	var recipients []string
	for _, uid := range []string{appt.SellerUID, appt.BuyerUID} {
		email, err := m.dir.Email(ctx, uid)
		if err != nil {
			m.log.Warn().Err(err).Str("uid", uid).Msg("resolve recipient email")
			continue
		}
		if email != "" {
			recipients = append(recipients, email)
		}
	}
	return recipients, nil
}

func composeMessage(kind string, appt *model.Appointment, item *model.Item) (subject, body string) {
	location := appt.Location
	if location == "" {
		location = "TBD"
	}
	notes := appt.Notes
	if notes == "" {
		notes = "None"
	}
	when := fmt.Sprintf("Date: %s\nTime: %s - %s",
		appt.StartTime.Format("Mon, 02 Jan 2006"),
		appt.StartTime.Format(time.Kitchen),
		appt.EndTime.Format(time.Kitchen))

	switch kind {
	case KindUpdated:
		subject = fmt.Sprintf("Appointment Updated: %s", item.Title)
		body = fmt.Sprintf("Your appointment has been updated!\n\nItem: %s\nPrice: %d\nStatus: %s\n%s\nLocation: %s\n\nNotes: %s",
			item.Title, item.Price, appt.Status, when, location, notes)
	case KindCancelled:
		subject = fmt.Sprintf("Appointment Cancelled: %s", item.Title)
		body = fmt.Sprintf("Your appointment has been cancelled.\n\nItem: %s\nOriginal %s",
			item.Title, when)
	default:
		subject = fmt.Sprintf("Appointment Scheduled: %s", item.Title)
		body = fmt.Sprintf("Your appointment has been scheduled!\n\nItem: %s\nPrice: %d\n%s\nLocation: %s\n\nNotes: %s",
			item.Title, item.Price, when, location, notes)
	}
	return subject, body
}

func buildMIME(from string, to []string, subject, body, ics string) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", joinAddresses(to))
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", w.Boundary())

	text, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=utf-8"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := text.Write([]byte(body)); err != nil {
		return nil, err
	}

	if ics != "" {
		cal, err := w.CreatePart(textproto.MIMEHeader{
			"Content-Type":        {"text/calendar; method=REQUEST; charset=utf-8"},
			"Content-Disposition": {`attachment; filename="appointment.ics"`},
		})
		if err != nil {
			return nil, err
		}
		if _, err := cal.Write([]byte(ics)); err != nil {
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func joinAddresses(to []string) string {
	out := ""
	for i, addr := range to {
		if i > 0 {
			out += ", "
		}
		out += addr
	}
	return out
}

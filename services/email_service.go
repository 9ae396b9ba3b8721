package services

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/leadscout/leadscout/config"
)

// ErrSMTPNotConfigured reports that outbound mail is disabled because
// SMTP credentials are missing from the environment.
var ErrSMTPNotConfigured = errors.New("smtp is not configured")

// EmailService sends transactional mail over SMTP with STARTTLS. All
// messages share one layout: a heading, a short paragraph, and a single
// call-to-action button.
type EmailService struct {
	host   string
	port   int
	user   string
	pass   string
	from   string
	appURL string
}

// NewEmailService creates a new email service instance from the environment
func NewEmailService() *EmailService {
	env, _ := config.Get()

	port, err := strconv.Atoi(env.SMTP_PORT)
	if err != nil || port <= 0 {
		port = 587
	}

	host := env.SMTP_HOST
	if host == "" {
		host = "smtp.gmail.com"
	}
	from := env.SMTP_FROM
	if from == "" {
		from = "noreply@leadscout.app"
	}

	return &EmailService{
		host:   host,
		port:   port,
		user:   env.SMTP_USER,
		pass:   env.SMTP_PASSWORD,
		from:   from,
		appURL: env.APP_BASE_URL,
	}
}

// IsConfigured checks if SMTP credentials are present
func (s *EmailService) IsConfigured() bool {
	return s.user != "" && s.pass != ""
}

// SendVerificationEmail sends the email-address confirmation link.
// Without SMTP credentials the link is logged instead so local signups
// can still be verified by hand.
func (s *EmailService) SendVerificationEmail(toEmail, token, userName string) error {
	verifyLink := fmt.Sprintf("%s/verify-email?token=%s", s.appURL, token)

	if !s.IsConfigured() {
		log.Printf("SMTP not configured. Verification link for %s: %s", toEmail, verifyLink)
		return ErrSMTPNotConfigured
	}

	body := s.actionEmail(
		"Confirm Your Email",
		userName,
		"Thanks for signing up for LeadScout. Confirm your email address to activate your account and start finding leads:",
		"Confirm Email",
		verifyLink,
		"This link will expire in 24 hours. If you didn't create a LeadScout account, you can safely ignore this email.",
	)
	return s.send(toEmail, "Confirm Your Email - LeadScout", body)
}

// SendPasswordResetEmail sends a password reset link to the user
func (s *EmailService) SendPasswordResetEmail(toEmail, resetToken, userName string) error {
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.appURL, resetToken)

	if !s.IsConfigured() {
		log.Printf("SMTP not configured. Reset link for %s: %s", toEmail, resetLink)
		return ErrSMTPNotConfigured
	}

	body := s.actionEmail(
		"Reset Your Password",
		userName,
		"We received a request to reset the password for your LeadScout account. Click the button below to create a new password:",
		"Reset Password",
		resetLink,
		"This link will expire in 1 hour for security reasons. If you didn't request a password reset, please ignore this email or contact support if you have concerns.",
	)
	return s.send(toEmail, "Reset Your Password - LeadScout", body)
}

// SendWelcomeEmail greets a user after their email is verified
func (s *EmailService) SendWelcomeEmail(toEmail, userName string) error {
	if !s.IsConfigured() {
		log.Printf("SMTP not configured. Skipping welcome email for %s", toEmail)
		return ErrSMTPNotConfigured
	}

	body := s.actionEmail(
		"Welcome to LeadScout",
		userName,
		"Your account is ready. Run a search for any business category and city, and LeadScout will surface the businesses with few reviews and no website of their own, the ones most likely to need you.",
		"Start Finding Leads",
		s.appURL,
		"Free accounts include 5 searches per day. Upgrade to Pro anytime for unlimited searches and exports.",
	)
	return s.send(toEmail, "Welcome to LeadScout", body)
}

// actionEmail renders the shared layout. Styles are inline because
// several mail clients strip style blocks.
func (s *EmailService) actionEmail(heading, userName, intro, buttonLabel, link, note string) string {
	if userName == "" {
		userName = "there"
	}

	const brand = "#366092"
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>%[1]s</title></head>
<body style="margin:0;padding:24px;background:#f5f6f8;font-family:-apple-system,'Segoe UI',Roboto,sans-serif;color:#333;">
<table role="presentation" width="100%%" cellpadding="0" cellspacing="0"><tr><td align="center">
<table role="presentation" width="600" cellpadding="0" cellspacing="0" style="background:#fff;border-radius:8px;">
<tr><td style="padding:32px 40px;">
  <div style="text-align:center;border-bottom:2px solid %[2]s;padding-bottom:16px;margin-bottom:24px;">
    <span style="color:%[2]s;font-size:26px;font-weight:700;">LeadScout</span><br>
    <span style="color:#666;font-size:13px;">Find businesses that need you</span>
  </div>
  <h2 style="color:%[2]s;margin-top:0;">%[1]s</h2>
  <p>Hello %[3]s,</p>
  <p>%[4]s</p>
  <p style="text-align:center;margin:28px 0;">
    <a href="%[5]s" style="display:inline-block;background:%[2]s;color:#fff;padding:14px 28px;border-radius:6px;text-decoration:none;font-weight:600;">%[6]s</a>
  </p>
  <p style="font-size:13px;color:#666;">If the button doesn't work, copy and paste this link into your browser:</p>
  <p style="font-size:12px;color:#666;word-break:break-all;background:#f5f6f8;padding:10px;border-radius:4px;">%[5]s</p>
  <p style="font-size:13px;background:#eef3f9;border:1px solid %[2]s;border-radius:4px;padding:12px;">%[7]s</p>
  <div style="margin-top:28px;padding-top:16px;border-top:1px solid #eee;font-size:12px;color:#666;text-align:center;">
    <strong>LeadScout</strong> · Local business lead generation<br>
    <a href="%[8]s" style="color:%[2]s;text-decoration:none;">%[8]s</a>
  </div>
</td></tr></table>
</td></tr></table>
</body>
</html>`, heading, brand, userName, intro, link, buttonLabel, note, s.appURL)
}

// send delivers one HTML message over SMTP with STARTTLS
func (s *EmailService) send(to, subject, htmlBody string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: LeadScout <%s>\r\n", s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	conn, err := smtp.Dial(fmt.Sprintf("%s:%d", s.host, s.port))
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer conn.Close()

	if err := conn.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
		return fmt.Errorf("smtp starttls: %w", err)
	}
	if err := conn.Auth(smtp.PlainAuth("", s.user, s.pass, s.host)); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := conn.Mail(s.from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := conn.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := conn.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write([]byte(msg.String())); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}
	conn.Quit()

	log.Printf("Email %q sent to: %s", subject, to)
	return nil
}

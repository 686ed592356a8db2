package mailer

import (
	"fmt"
	"os"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendWelcome(toEmail, fullName string) error
	SendTrialEndingNotice(toEmail, planName string) error
	SendPaymentFailedNotice(toEmail string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	frontendURL string // Added to construct links
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	frontendURL := os.Getenv("FRONTEND_URL")

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		frontendURL: frontendURL,
	}
}

func (s *emailService) send(toEmail, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send %q to %s: %v\n", subject, toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] %q sent to %s\n", subject, toEmail)
	return nil
}

func (s *emailService) SendWelcome(toEmail, fullName string) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Welcome to LegalAssist, %s!</h2>
			<p>Your account is ready. Open a case, describe your situation, and get guidance tailored to your jurisdiction.</p>
			<a href="%s/cases" style="background-color: #007BFF; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Start a Case</a>
		</div>
	`, fullName, s.frontendURL)

	return s.send(toEmail, "Welcome to LegalAssist", body)
}

func (s *emailService) SendTrialEndingNotice(toEmail, planName string) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Your trial is ending soon</h2>
			<p>Your trial of the <b>%s</b> plan ends in 3 days. To keep access to your cases and AI summaries, make sure a payment method is on file.</p>
			<a href="%s/billing" style="background-color: #007BFF; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Manage Billing</a>
		</div>
	`, planName, s.frontendURL)

	return s.send(toEmail, "Your trial ends in 3 days", body)
}

func (s *emailService) SendPaymentFailedNotice(toEmail string) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Payment failed</h2>
			<p>We couldn't process your latest payment. Your subscription is now past due. Please update your payment method to keep your access.</p>
			<a href="%s/billing" style="background-color: #DC3545; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Update Payment Method</a>
		</div>
	`, s.frontendURL)

	return s.send(toEmail, "Action required: payment failed", body)
}

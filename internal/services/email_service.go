package services

import (
	"fmt"
	"os"

	"localmarket/internal/models"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type EmailService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewEmailService() *EmailService {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	fromEmail := os.Getenv("SENDGRID_NOTIFICATIONS_FROM_EMAIL")
	fromName := os.Getenv("SENDGRID_FROM_NAME")

	client := sendgrid.NewSendClient(apiKey)

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// SendLocationSubmittedEmail confirms to the owner that their location was received
func (s *EmailService) SendLocationSubmittedEmail(owner models.Account, business models.Business, location models.Location) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(owner.Username, owner.Email)
	subject := fmt.Sprintf("Location submitted for %s", business.Name)
	plainContent := fmt.Sprintf("The location '%s' for your business '%s' was saved and is awaiting verification.",
		location.Address.Formatted, business.Name)
	htmlContent := fmt.Sprintf("<p>The location '%s' for your business '<strong>%s</strong>' was saved and is awaiting verification.</p>",
		location.Address.Formatted, business.Name)

	message := mail.NewSingleEmail(from, subject, to, plainContent, htmlContent)
	_, err := s.client.Send(message)
	return err
}

// SendLocationVerifiedEmail notifies the owner their location is now public
func (s *EmailService) SendLocationVerifiedEmail(owner models.Account, business models.Business) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(owner.Username, owner.Email)
	subject := fmt.Sprintf("Location verified for %s", business.Name)
	plainContent := fmt.Sprintf("The location for '%s' has been verified and now appears in nearby search results.", business.Name)
	htmlContent := fmt.Sprintf("<p>The location for '<strong>%s</strong>' has been verified and now appears in nearby search results.</p>", business.Name)

	message := mail.NewSingleEmail(from, subject, to, plainContent, htmlContent)
	_, err := s.client.Send(message)
	return err
}

// SendVerificationNudgeEmail reminds an owner that their location is still unverified
func (s *EmailService) SendVerificationNudgeEmail(owner models.Account, business models.Business, location models.Location) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(owner.Username, owner.Email)
	subject := fmt.Sprintf("Location for %s still awaiting verification", business.Name)
	plainContent := fmt.Sprintf("The location '%s' for '%s' has not been verified yet. Unverified locations do not appear in search results.",
		location.Address.Formatted, business.Name)
	htmlContent := fmt.Sprintf("<p>The location '%s' for '<strong>%s</strong>' has not been verified yet.</p><p>Unverified locations do not appear in search results.</p>",
		location.Address.Formatted, business.Name)

	message := mail.NewSingleEmail(from, subject, to, plainContent, htmlContent)
	response, err := s.client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send email to %s: %d", owner.Email, response.StatusCode)
	}
	return nil
}

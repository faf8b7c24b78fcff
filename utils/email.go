package utils

import (
	"fmt"

	"github.com/keighl/postmark"

	"groceteria/models"
)

// EmailService handles sending emails using Postmark
type EmailService struct {
	client *postmark.Client
	sender string
}

// NewEmailService initializes and returns a new EmailService instance
func NewEmailService(apiToken, sender string) *EmailService {
	return &EmailService{
		client: postmark.NewClient(apiToken, ""),
		sender: sender,
	}
}

// SendEmail sends a basic email to the specified recipient
func (es *EmailService) SendEmail(toEmail, subject, htmlContent string) error {
	_, err := es.client.SendEmail(postmark.Email{
		From:     es.sender,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlContent,
		TextBody: htmlContent,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendVerificationEmail sends the signup verification code to the user
func (es *EmailService) SendVerificationEmail(toEmail, code string) error {
	subject := "Verify Your Email - Groceteria"
	htmlContent := fmt.Sprintf(
		"<strong>Welcome to Groceteria!</strong><br><br>Your verification code is <strong>%s</strong>. It expires in 10 minutes.",
		code,
	)
	return es.SendEmail(toEmail, subject, htmlContent)
}

// SendPasswordResetEmail sends the password reset link to the user
func (es *EmailService) SendPasswordResetEmail(toEmail, resetURL string) error {
	subject := "Reset Your Password - Groceteria"
	htmlContent := fmt.Sprintf(
		"Forgot your password? Click the link below to reset it. The link expires in 10 minutes.<br><br><a href=%q>%s</a><br><br>If you did not forget your password, just ignore this email.",
		resetURL, resetURL,
	)
	return es.SendEmail(toEmail, subject, htmlContent)
}

// SendOrderConfirmationEmail sends an order confirmation email to the user
func (es *EmailService) SendOrderConfirmationEmail(toEmail string, order *models.Order) error {
	subject := "Order Confirmation - Groceteria"
	htmlContent := fmt.Sprintf(
		"<strong>Dear Customer,</strong><br><br>Thank you for your purchase! Your order <strong>#%d</strong> has been received and paid.<br><br>Total Amount: <strong>$%.2f</strong> (delivery fee $%.2f)<br>Payment Method: <strong>%s</strong><br><br>Thank you for shopping with us!",
		order.OrderNumber,
		order.TotalPrice,
		order.DeliveryFee,
		order.PaymentMethod,
	)
	return es.SendEmail(toEmail, subject, htmlContent)
}

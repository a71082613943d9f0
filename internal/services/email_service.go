package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// EmailService defines the interface for sending transactional email
type EmailService interface {
	SendLoginOTP(ctx context.Context, email, code, browser, ip string) error
	SendLanguageOTP(ctx context.Context, email, code, language string) error
	SendAudioUploadOTP(ctx context.Context, email, code string) error
	SendPasswordReset(ctx context.Context, email, resetLink, generatedPassword string) error
	SendPaymentReceipt(ctx context.Context, email, planName, orderID string, amount int64) error
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	sesClient   *ses.Client
	fromAddress string
	logger      *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(region, fromAddress string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		logger:      logger,
	}, nil
}

func (s *AWSSESEmailService) send(ctx context.Context, email, subject, htmlBody, textBody string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send email via SES",
			slog.String("email", email),
			slog.String("subject", subject),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		slog.String("email", email),
		slog.String("subject", subject),
		slog.String("message_id", *result.MessageId))

	return nil
}

const otpEmailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .code { font-size: 32px; letter-spacing: 8px; font-weight: bold; background-color: #f8f9fa; padding: 16px; text-align: center; border-radius: 4px; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p>%s</p>
        <div class="code">%s</div>
        <p>This code expires in 10 minutes and can only be used once.</p>
        <div class="footer">
            <p>If you did not request this code, you can safely ignore this email.</p>
        </div>
    </div>
</body>
</html>
`

// SendLoginOTP delivers the browser step-up verification code
func (s *AWSSESEmailService) SendLoginOTP(ctx context.Context, email, code, browser, ip string) error {
	intro := fmt.Sprintf("A login from %s (IP %s) requires verification. Enter this code to continue:", browser, ip)
	htmlBody := fmt.Sprintf(otpEmailTemplate, "Verify your login", intro, code)
	textBody := fmt.Sprintf("Verify your login\n\n%s\n\n%s\n\nThis code expires in 10 minutes and can only be used once.", intro, code)

	return s.send(ctx, email, "Your login verification code", htmlBody, textBody)
}

// SendLanguageOTP delivers the language-change verification code
func (s *AWSSESEmailService) SendLanguageOTP(ctx context.Context, email, code, language string) error {
	intro := fmt.Sprintf("Confirm changing your preferred language to %q with this code:", language)
	htmlBody := fmt.Sprintf(otpEmailTemplate, "Confirm language change", intro, code)
	textBody := fmt.Sprintf("Confirm language change\n\n%s\n\n%s\n\nThis code expires in 10 minutes and can only be used once.", intro, code)

	return s.send(ctx, email, "Confirm your language change", htmlBody, textBody)
}

// SendAudioUploadOTP delivers the audio upload verification code
func (s *AWSSESEmailService) SendAudioUploadOTP(ctx context.Context, email, code string) error {
	intro := "Enter this code to verify your audio upload:"
	htmlBody := fmt.Sprintf(otpEmailTemplate, "Verify your audio upload", intro, code)
	textBody := fmt.Sprintf("Verify your audio upload\n\n%s\n\n%s\n\nThis code expires in 10 minutes and can only be used once.", intro, code)

	return s.send(ctx, email, "Your audio upload verification code", htmlBody, textBody)
}

// SendPasswordReset delivers the reset link plus the generated fallback
// password
func (s *AWSSESEmailService) SendPasswordReset(ctx context.Context, email, resetLink, generatedPassword string) error {
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h1>Reset your password</h1>
        <p>You requested a password reset. Use the link below to choose a new password:</p>
        <p><a href="%s">%s</a></p>
        <p>Alternatively, you can sign in with this temporary password and change it afterwards:</p>
        <p><code>%s</code></p>
        <p>This link expires in 24 hours. You can only request one reset per day.</p>
        <p style="color: #666; font-size: 12px;">If you did not request this reset, please secure your account.</p>
    </div>
</body>
</html>
`, resetLink, resetLink, generatedPassword)

	textBody := fmt.Sprintf(`Reset your password

You requested a password reset. Use the link below to choose a new password:

%s

Alternatively, you can sign in with this temporary password and change it afterwards:

%s

This link expires in 24 hours. You can only request one reset per day.

If you did not request this reset, please secure your account.
`, resetLink, generatedPassword)

	return s.send(ctx, email, "Reset your password", htmlBody, textBody)
}

// SendPaymentReceipt confirms a successful subscription purchase
func (s *AWSSESEmailService) SendPaymentReceipt(ctx context.Context, email, planName, orderID string, amount int64) error {
	rupees := amount / 100
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h1>Payment received</h1>
        <p>Your payment of ₹%d for the %s was successful.</p>
        <p>Order reference: <code>%s</code></p>
        <p>Your subscription is active for the next 30 days.</p>
    </div>
</body>
</html>
`, rupees, planName, orderID)

	textBody := fmt.Sprintf(`Payment received

Your payment of Rs %d for the %s was successful.

Order reference: %s

Your subscription is active for the next 30 days.
`, rupees, planName, orderID)

	return s.send(ctx, email, "Your payment was successful", htmlBody, textBody)
}

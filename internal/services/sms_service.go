package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSService defines the interface for sending text messages
type SMSService interface {
	SendLanguageOTP(ctx context.Context, phone, code, language string) error
}

// e164Pattern matches E.164 formatted phone numbers.
var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// IsValidPhoneNumber reports whether phone is E.164 formatted.
func IsValidPhoneNumber(phone string) bool {
	return e164Pattern.MatchString(phone)
}

// TwilioSMSService sends SMS using Twilio
type TwilioSMSService struct {
	client     *twilio.RestClient
	fromNumber string
	logger     *slog.Logger
}

// NewTwilioSMSService creates a new Twilio SMS service
func NewTwilioSMSService(accountSID, authToken, fromNumber string, logger *slog.Logger) *TwilioSMSService {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioSMSService{
		client:     client,
		fromNumber: fromNumber,
		logger:     logger,
	}
}

// SendLanguageOTP delivers the language-change verification code over SMS
func (s *TwilioSMSService) SendLanguageOTP(ctx context.Context, phone, code, language string) error {
	if !IsValidPhoneNumber(phone) {
		return fmt.Errorf("invalid phone number format")
	}

	body := fmt.Sprintf("Your language change verification code is %s. It expires in 10 minutes.", code)

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(phone)
	params.SetFrom(s.fromNumber)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		s.logger.Error("failed to send SMS via Twilio",
			slog.String("phone", phone),
			slog.Any("error", err))
		return fmt.Errorf("failed to send sms: %w", err)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	s.logger.Info("sms sent",
		slog.String("phone", phone),
		slog.String("message_sid", sid))

	return nil
}

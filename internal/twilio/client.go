package twilio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	twilio "github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// ErrNotConfigured is returned when WhatsApp credentials are missing.
var ErrNotConfigured = errors.New("twilio client not configured")

// Client sends WhatsApp messages and verifies incoming webhooks.
type Client struct {
	client       *twilio.RestClient
	validator    *twclient.RequestValidator
	fromWhatsApp string
	logger       zerolog.Logger
}

// New creates a Twilio client bound to the configured WhatsApp sender number.
// Missing credentials yield a client whose sends fail with ErrNotConfigured.
func New(accountSID, authToken, fromWhatsApp string, logger zerolog.Logger) *Client {
	c := &Client{
		fromWhatsApp: fromWhatsApp,
		logger:       logger.With().Str("component", "twilio").Logger(),
	}
	if accountSID == "" || authToken == "" {
		return c
	}
	validator := twclient.NewRequestValidator(authToken)
	c.client = twilio.NewRestClientWithParams(twilio.ClientParams{Username: accountSID, Password: authToken})
	c.validator = &validator
	return c
}

// SendWhatsAppMessage sends body to the given number.
func (c *Client) SendWhatsAppMessage(to, body string) error {
	if c.client == nil {
		return ErrNotConfigured
	}

	sender := normalizeWhatsAppAddress(c.fromWhatsApp)
	if sender == "" {
		return fmt.Errorf("twilio sender WhatsApp number is not configured")
	}
	recipient := normalizeWhatsAppAddress(to)
	if recipient == "" {
		return fmt.Errorf("recipient number missing or invalid")
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(recipient)
	params.SetFrom(sender)
	params.SetBody(body)

	resp, err := c.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send message: %w", err)
	}

	event := c.logger.Info().Str("to", recipient)
	if resp.Sid != nil {
		event = event.Str("sid", *resp.Sid)
	}
	event.Msg("whatsapp message sent")
	return nil
}

// ValidWebhook checks the X-Twilio-Signature of a webhook call. Without an
// auth token every request is accepted.
func (c *Client) ValidWebhook(url string, params map[string]string, signature string) bool {
	if c.validator == nil {
		return true
	}
	return c.validator.Validate(url, params, signature)
}

// StripWhatsAppPrefix returns the bare phone number of a WhatsApp address.
func StripWhatsAppPrefix(from string) string {
	return strings.TrimPrefix(strings.TrimSpace(from), "whatsapp:")
}

func normalizeWhatsAppAddress(number string) string {
	trimmed := strings.TrimSpace(number)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "whatsapp:") {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "+") {
		return "whatsapp:" + trimmed
	}
	return "whatsapp:+" + trimmed
}

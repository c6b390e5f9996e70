package notify

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/nurpe/rms-service-orders/internal/config"
)

const defaultCountryCode = "55"

// NormalizePhone strips formatting and prefixes the country code when the
// number is a bare national one. Numbers written with a leading + already
// carry their country code. Empty input yields "".
func NormalizePhone(phone string) string {
	international := strings.HasPrefix(strings.TrimSpace(phone), "+")
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	value := strings.TrimLeft(digits.String(), "0")
	if value == "" {
		return ""
	}
	// national numbers carry 10 or 11 digits (area code + subscriber)
	if !international && len(value) <= 11 {
		value = defaultCountryCode + value
	}
	return value
}

// WhatsAppLink builds a click-to-chat link. Without a usable phone the link
// opens the contact picker with the message prefilled.
func WhatsAppLink(phone, text string) string {
	number := NormalizePhone(phone)
	link := "https://wa.me/" + number
	if text == "" {
		return link
	}
	return link + "?text=" + url.QueryEscape(text)
}

func BudgetMessage(company, number, documentURL string) string {
	company = strings.TrimSpace(company)
	if company == "" {
		return fmt.Sprintf("Olá! Segue o orçamento %s: %s", number, documentURL)
	}
	return fmt.Sprintf("Olá! Segue o orçamento %s da %s: %s", number, company, documentURL)
}

type Sender struct {
	client *twilio.RestClient
	from   string
	log    zerolog.Logger
}

func NewSender(cfg config.TwilioConfig, log zerolog.Logger) *Sender {
	return &Sender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		}),
		from: cfg.WhatsAppFrom,
		log:  log,
	}
}

func (s *Sender) SendWhatsApp(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	number := NormalizePhone(to)
	if number == "" {
		return fmt.Errorf("invalid phone number %q", to)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(whatsAppAddress(number))
	params.SetFrom(whatsAppAddress(s.from))
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("send whatsapp message: %w", err)
	}
	if resp.Sid != nil {
		s.log.Info().Str("sid", *resp.Sid).Msg("whatsapp message sent")
	}
	return nil
}

func whatsAppAddress(number string) string {
	number = strings.TrimPrefix(strings.TrimSpace(number), "whatsapp:")
	if !strings.HasPrefix(number, "+") {
		number = "+" + number
	}
	return "whatsapp:" + number
}

package paymentControllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/junaidrashid-git/storefront-api/pkg/apperr"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

const IntentSucceeded = string(stripe.PaymentIntentStatusSucceeded)

// Intent is the part of a processor payment intent the storefront reads.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Currency     string `json:"currency"`
	Amount       int64  `json:"amount"` // minor units
}

type Gateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (Intent, error)
	GetIntent(ctx context.Context, id string) (Intent, error)
}

// StripeClient creates and retrieves payment intents through the official SDK.
type StripeClient struct {
	api        *client.API
	configured bool
}

// NewStripeClient points the SDK at baseURL (the public API, or a fake in tests).
func NewStripeClient(secretKey, baseURL string, timeout time.Duration, maxRetries int64) *StripeClient {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(strings.TrimRight(baseURL, "/")),
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(maxRetries),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	api := &client.API{}
	api.Init(secretKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	return &StripeClient{api: api, configured: secretKey != ""}
}

func (s *StripeClient) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (Intent, error) {
	if !s.configured {
		return Intent{}, apperr.Upstream("payment processor is not configured", nil)
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, processorError(err)
	}
	return fromStripe(pi), nil
}

func (s *StripeClient) GetIntent(ctx context.Context, id string) (Intent, error) {
	if !s.configured {
		return Intent{}, apperr.Upstream("payment processor is not configured", nil)
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.Get(id, params)
	if err != nil {
		return Intent{}, processorError(err)
	}
	return fromStripe(pi), nil
}

func fromStripe(pi *stripe.PaymentIntent) Intent {
	return Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Currency:     string(pi.Currency),
		Amount:       pi.Amount,
	}
}

// processorError maps caller mistakes (unknown intent, rejected parameters, declined
// cards) to InvalidArgument. Auth, rate limit, server and network failures are Upstream.
func processorError(err error) error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return apperr.Upstream("failed to reach payment processor", err)
	}

	msg := se.Msg
	if msg == "" {
		msg = "payment processor error (" + http.StatusText(se.HTTPStatusCode) + ")"
	}
	switch {
	case se.HTTPStatusCode == http.StatusNotFound || se.Code == stripe.ErrorCodeResourceMissing:
		return apperr.InvalidArgument("payment intent not found")
	case se.Type == stripe.ErrorTypeCard:
		return apperr.InvalidArgument(msg)
	case se.HTTPStatusCode >= 400 && se.HTTPStatusCode < 500 &&
		se.HTTPStatusCode != http.StatusUnauthorized && se.HTTPStatusCode != http.StatusTooManyRequests:
		return apperr.InvalidArgument(msg)
	default:
		return apperr.Upstream(msg, err)
	}
}

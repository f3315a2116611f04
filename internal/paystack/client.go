// Package paystack is the HTTPS client for the Paystack payment gateway:
// hosted session initialization, server-to-server charge verification,
// refunds, and webhook signature verification.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/Bruce101github/crochethairbygg/internal/domain/payment"
)

// Config holds the gateway credentials and endpoints, injected at
// construction.
type Config struct {
	SecretKey   string
	PublicKey   string
	BaseURL     string
	CallbackURL string
	Currency    string
	// Timeout bounds every outbound call; a timeout is a retryable gateway
	// failure, never success.
	Timeout time.Duration
}

// Client implements payment.Gateway against the Paystack HTTP API.
type Client struct {
	cfg    Config
	http   *http.Client
	tracer trace.Tracer
	calls  metric.Int64Counter
}

var _ payment.Gateway = (*Client)(nil)

// NewClient creates a Paystack client. Sensible defaults are applied for
// base URL, currency, and timeout.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.paystack.co"
	}
	if cfg.Currency == "" {
		cfg.Currency = "GHS"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	calls, _ := otel.Meter("paystack").Int64Counter("paystack.client.calls",
		metric.WithDescription("Outbound Paystack API calls by path and outcome."))
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		tracer: otel.Tracer("paystack"),
		calls:  calls,
	}
}

// PublicKey returns the publishable key the storefront embeds.
func (c *Client) PublicKey() string { return c.cfg.PublicKey }

// Initialize opens a hosted payment session. Any non-2xx status or
// malformed body is a *payment.GatewayError.
func (c *Client) Initialize(ctx context.Context, p payment.InitializeParams) (*payment.Session, error) {
	payload := map[string]any{
		"email":        p.Email,
		"amount":       p.AmountMinor,
		"reference":    p.Reference,
		"currency":     c.cfg.Currency,
		"callback_url": fmt.Sprintf("%s/payment-success?reference=%s", c.cfg.CallbackURL, url.QueryEscape(p.Reference)),
		"channels":     []string{p.Channel},
	}

	body, err := c.post(ctx, "/transaction/initialize", payload)
	if err != nil {
		return nil, err
	}

	sess := &payment.Session{
		Reference:   p.Reference,
		AmountMinor: p.AmountMinor,
		Email:       p.Email,
	}
	if err := decodeInitialize(body, sess); err != nil {
		return nil, &payment.GatewayError{Op: "initialize", Message: err.Error()}
	}
	if sess.AuthorizationURL == "" {
		return nil, &payment.GatewayError{Op: "initialize", Message: "response missing authorization_url"}
	}
	return sess, nil
}

// VerifyCharge confirms a charge really succeeded. Only an explicit
// data.status == "success" counts.
func (c *Client) VerifyCharge(ctx context.Context, reference string) (bool, error) {
	body, err := c.get(ctx, "/transaction/verify/"+url.PathEscape(reference))
	if err != nil {
		return false, err
	}

	ok, chargeStatus, err := decodeVerify(body)
	if err != nil {
		return false, &payment.GatewayError{Op: "verify", Message: err.Error()}
	}
	return ok && chargeStatus == "success", nil
}

// Refund refunds all or part of a settled transaction and returns the
// gateway's refund reference.
func (c *Client) Refund(ctx context.Context, p payment.RefundParams) (string, error) {
	payload := map[string]any{
		"transaction":   p.TransactionReference,
		"amount":        p.AmountMinor,
		"currency":      c.cfg.Currency,
		"customer_note": p.CustomerNote,
		"merchant_note": p.MerchantNote,
	}

	body, err := c.post(ctx, "/refund", payload)
	if err != nil {
		return "", err
	}

	ok, refundRef, message, err := decodeRefund(body)
	if err != nil {
		return "", &payment.GatewayError{Op: "refund", Message: err.Error()}
	}
	if !ok {
		if message == "" {
			message = "refund was not accepted"
		}
		return "", &payment.GatewayError{Op: "refund", Message: message}
	}
	return refundRef, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "marshal payload")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	return c.do(req, path)
}

func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	ctx, span := c.tracer.Start(req.Context(), "paystack "+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", op),
		))
	defer span.End()

	req = req.WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		c.finish(ctx, span, op, "transport_error", err)
		return nil, &payment.GatewayError{Op: op, Message: err.Error()}
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		c.finish(ctx, span, op, "read_error", err)
		return nil, &payment.GatewayError{Op: op, Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gerr := &payment.GatewayError{
			Op:      op,
			Message: fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(body, 512)),
		}
		c.finish(ctx, span, op, "http_error", gerr)
		return nil, gerr
	}
	c.finish(ctx, span, op, "ok", nil)
	return body, nil
}

// finish records the call counter and marks the span on failure.
func (c *Client) finish(ctx context.Context, span trace.Span, op, outcome string, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	c.calls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("url.path", op),
		attribute.String("outcome", outcome),
	))
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}

// decodeInitialize extracts data.authorization_url and data.access_code.
func decodeInitialize(body []byte, sess *payment.Session) error {
	d := jx.DecodeBytes(body)
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "data" {
			return d.Skip()
		}
		return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
			switch string(key) {
			case "authorization_url":
				v, err := d.Str()
				sess.AuthorizationURL = v
				return err
			case "access_code":
				v, err := d.Str()
				sess.AccessCode = v
				return err
			default:
				return d.Skip()
			}
		})
	})
}

// decodeVerify extracts the top-level status flag and data.status.
func decodeVerify(body []byte) (ok bool, chargeStatus string, err error) {
	d := jx.DecodeBytes(body)
	err = d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "status":
			v, err := d.Bool()
			ok = v
			return err
		case "data":
			// Failed lookups answer {"status":false,"data":null}.
			if d.Next() == jx.Null {
				return d.Null()
			}
			return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				if string(key) != "status" {
					return d.Skip()
				}
				v, err := d.Str()
				chargeStatus = v
				return err
			})
		default:
			return d.Skip()
		}
	})
	return ok, chargeStatus, err
}

// decodeRefund extracts the status flag, data.transaction.reference, and the
// top-level message used in failure responses.
func decodeRefund(body []byte) (ok bool, refundRef, message string, err error) {
	d := jx.DecodeBytes(body)
	err = d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "status":
			v, err := d.Bool()
			ok = v
			return err
		case "message":
			v, err := d.Str()
			message = v
			return err
		case "data":
			if d.Next() == jx.Null {
				return d.Null()
			}
			return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				if string(key) != "transaction" {
					return d.Skip()
				}
				if d.Next() == jx.Null {
					return d.Null()
				}
				return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
					if string(key) != "reference" {
						return d.Skip()
					}
					v, err := d.Str()
					refundRef = v
					return err
				})
			})
		default:
			return d.Skip()
		}
	})
	return ok, refundRef, message, err
}

package twilio

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/arcticalls/arcticalls/internal/call"
	"github.com/arcticalls/arcticalls/internal/config"
)

// caller is the slice of the REST client the device needs.
type caller interface {
	IsHealthy() bool
	CreateCall(ctx context.Context, p CallParams) (string, error)
	EndCall(ctx context.Context, callSID string) error
}

// Device places calls over the Twilio REST API. An outbound call first
// rings the agent's forward number from the account number; once the
// agent answers, Twilio fetches the voice webhook, which bridges the
// leg to the dialed destination carried in the To query parameter.
type Device struct {
	client        caller
	accountNumber string
	forwardNumber string
	baseURL       string
}

// NewDevice wires a Device to the REST client and the public base URL
// the voice webhooks are served under.
func NewDevice(client *Client, cfg *config.Config) *Device {
	return &Device{
		client:        client,
		accountNumber: cfg.AccountNumber,
		forwardNumber: cfg.ForwardNumber,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// Registered reports whether the device can place calls.
func (d *Device) Registered() bool {
	return d.client != nil && d.client.IsHealthy() &&
		d.accountNumber != "" && d.forwardNumber != "" && d.baseURL != ""
}

// Connect originates a call to the given destination number.
func (d *Device) Connect(ctx context.Context, number string) (call.Call, error) {
	if !d.Registered() {
		return nil, fmt.Errorf("device not registered")
	}

	voiceURL := d.baseURL + "/webhooks/voice?To=" + url.QueryEscape(number)
	sid, err := d.client.CreateCall(ctx, CallParams{
		From:           d.accountNumber,
		To:             d.forwardNumber,
		URL:            voiceURL,
		StatusCallback: d.baseURL + "/webhooks/voice/status",
		Timeout:        int(config.DialTimeout.Seconds()),
	})
	if err != nil {
		return nil, err
	}

	return &restCall{sid: sid, client: d.client}, nil
}

// restCall is one leg controlled over the REST API. In-band controls
// like mute and DTMF are not available on a REST-bridged leg; they are
// exercised on the agent's handset instead.
type restCall struct {
	sid    string
	client caller
}

func (c *restCall) ID() string { return c.sid }

func (c *restCall) Disconnect() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.client.EndCall(ctx, c.sid); err != nil {
		slog.Error("Failed to end call", "call_sid", c.sid, "error", err)
	}
}

func (c *restCall) Accept() {
	// A bridged leg is already answered when the status callback
	// reports in-progress; nothing to do here.
}

func (c *restCall) Reject() {
	c.Disconnect()
}

func (c *restCall) Mute(muted bool) {
	slog.Debug("Mute not supported on REST leg", "call_sid", c.sid, "muted", muted)
}

func (c *restCall) SendDigits(digits string) {
	slog.Debug("DTMF not supported on REST leg", "call_sid", c.sid)
}

package twilio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/arcticalls/arcticalls/internal/config"
)

// Client wraps the Twilio API client with retry logic and health monitoring
type Client struct {
	client       *twilio.RestClient
	accountSID   string
	authToken    string
	mu           sync.RWMutex
	healthy      bool
	lastCheck    time.Time
	failureCount int
}

// NewClient creates a new Twilio client
func NewClient(cfg *config.Config) *Client {
	c := &Client{healthy: false}

	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		c.UpdateCredentials(cfg.TwilioAccountSID, cfg.TwilioAuthToken)
	}

	return c
}

// UpdateCredentials updates the Twilio credentials and reinitializes the client
func (c *Client) UpdateCredentials(accountSID, authToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.accountSID = accountSID
	c.authToken = authToken
	c.client = twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	c.healthy = true
	c.failureCount = 0
}

// IsHealthy returns the current health status of the Twilio connection
func (c *Client) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.healthy && c.client != nil
}

// CallParams describes an outbound call originate request.
type CallParams struct {
	From           string
	To             string
	URL            string
	StatusCallback string
	Timeout        int
}

// CreateCall originates an outbound call with retry logic and returns
// the call SID.
func (c *Client) CreateCall(ctx context.Context, p CallParams) (string, error) {
	c.mu.RLock()
	if c.client == nil {
		c.mu.RUnlock()
		return "", fmt.Errorf("twilio client not initialized")
	}
	c.mu.RUnlock()

	var lastErr error
	for attempt := 0; attempt < config.TwilioMaxRetries; attempt++ {
		sid, err := c.createCallOnce(p)
		if err == nil {
			c.recordSuccess()
			return sid, nil
		}
		lastErr = err
		c.recordFailure()

		// Exponential backoff
		backoff := time.Duration(1<<uint(attempt)) * time.Second
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	return "", fmt.Errorf("failed after %d retries: %w", config.TwilioMaxRetries, lastErr)
}

func (c *Client) createCallOnce(p CallParams) (string, error) {
	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()

	params := &twilioApi.CreateCallParams{}
	params.SetFrom(p.From)
	params.SetTo(p.To)
	params.SetUrl(p.URL)
	if p.StatusCallback != "" {
		params.SetStatusCallback(p.StatusCallback)
		params.SetStatusCallbackEvent([]string{"initiated", "ringing", "answered", "completed"})
	}
	if p.Timeout > 0 {
		params.SetTimeout(p.Timeout)
	}

	resp, err := client.Api.CreateCall(params)
	if err != nil {
		return "", fmt.Errorf("twilio API error: %w", err)
	}

	if resp.Sid == nil {
		return "", fmt.Errorf("no SID returned from Twilio")
	}

	return *resp.Sid, nil
}

// EndCall asks Twilio to complete an in-progress or queued call.
func (c *Client) EndCall(ctx context.Context, callSID string) error {
	c.mu.RLock()
	if c.client == nil {
		c.mu.RUnlock()
		return fmt.Errorf("twilio client not initialized")
	}
	client := c.client
	c.mu.RUnlock()

	params := &twilioApi.UpdateCallParams{}
	params.SetStatus("completed")

	if _, err := client.Api.UpdateCall(callSID, params); err != nil {
		c.recordFailure()
		return fmt.Errorf("twilio API error: %w", err)
	}

	c.recordSuccess()
	return nil
}

// GetAccountBalance returns the current account balance
func (c *Client) GetAccountBalance(ctx context.Context) (float64, error) {
	c.mu.RLock()
	if c.client == nil {
		c.mu.RUnlock()
		return 0, fmt.Errorf("twilio client not initialized")
	}
	client := c.client
	c.mu.RUnlock()

	resp, err := client.Api.FetchBalance(nil)
	if err != nil {
		return 0, fmt.Errorf("twilio API error: %w", err)
	}

	if resp.Balance == nil {
		return 0, nil
	}

	var balance float64
	fmt.Sscanf(*resp.Balance, "%f", &balance)

	return balance, nil
}

// IncomingPhoneNumber represents an owned phone number
type IncomingPhoneNumber struct {
	SID          string
	PhoneNumber  string
	FriendlyName string
	VoiceEnabled bool
}

// ListIncomingPhoneNumbers returns phone numbers owned by the account
func (c *Client) ListIncomingPhoneNumbers(ctx context.Context) ([]IncomingPhoneNumber, error) {
	c.mu.RLock()
	if c.client == nil {
		c.mu.RUnlock()
		return nil, fmt.Errorf("twilio client not initialized")
	}
	client := c.client
	c.mu.RUnlock()

	params := &twilioApi.ListIncomingPhoneNumberParams{}

	resp, err := client.Api.ListIncomingPhoneNumber(params)
	if err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("twilio API error: %w", err)
	}

	c.recordSuccess()

	var numbers []IncomingPhoneNumber
	for _, n := range resp {
		number := IncomingPhoneNumber{}
		if n.Sid != nil {
			number.SID = *n.Sid
		}
		if n.PhoneNumber != nil {
			number.PhoneNumber = *n.PhoneNumber
		}
		if n.FriendlyName != nil {
			number.FriendlyName = *n.FriendlyName
		}
		if n.Capabilities != nil {
			number.VoiceEnabled = n.Capabilities.Voice
		}
		numbers = append(numbers, number)
	}

	return numbers, nil
}

// OwnsNumber reports whether the account owns the given number. Used
// at startup to catch configuration typos before calls are attempted.
func (c *Client) OwnsNumber(ctx context.Context, number string) (bool, error) {
	numbers, err := c.ListIncomingPhoneNumbers(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range numbers {
		if n.PhoneNumber == number {
			return true, nil
		}
	}
	return false, nil
}

// Health monitoring helpers

func (c *Client) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.healthy = true
	c.failureCount = 0
	c.lastCheck = time.Now()
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failureCount++
	c.lastCheck = time.Now()

	if c.failureCount >= config.TwilioMaxRetries {
		c.healthy = false
	}
}

// CheckHealth performs a health check by validating credentials
func (c *Client) CheckHealth(ctx context.Context) error {
	c.mu.RLock()
	if c.client == nil {
		c.mu.RUnlock()
		return fmt.Errorf("twilio client not initialized")
	}
	client := c.client
	accountSID := c.accountSID
	c.mu.RUnlock()

	_, err := client.Api.FetchAccount(accountSID)
	if err != nil {
		c.recordFailure()
		return err
	}

	c.recordSuccess()
	return nil
}

// Start starts the background health checker
func (c *Client) Start(ctx context.Context) {
	go c.healthChecker(ctx)
}

func (c *Client) healthChecker(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckHealth(ctx)
		}
	}
}

// Package routing decides how the telephony network should complete a
// signaling request and renders the decision as TwiML.
package routing

import (
	"strconv"
	"strings"

	"github.com/arcticalls/arcticalls/internal/phone"
)

// Actions a decision can take.
const (
	ActionReject = "reject"
	ActionRing   = "ring" // ring the software client (and optional forward leg)
	ActionDial   = "dial" // dial an external number
)

// Config is the static routing configuration. Decisions are pure given
// a Config and the request's To/From numbers.
type Config struct {
	AccountNumber  string // caller ID for every outgoing leg
	ForwardNumber  string // optional simultaneous-ring target on inbound
	ClientIdentity string // registered software client identity
	DialTimeout    int    // no-answer timeout in seconds
}

// Decision is the outcome of evaluating one signaling request.
type Decision struct {
	Action   string
	Target   string // canonical number for dial, identity for ring
	Forward  string // canonical forward leg on inbound, may be empty
	Say      string // spoken message on reject
	CallerID string
	Timeout  int
}

// Decide evaluates an inbound or outbound signaling request. A request
// addressed to the account's own number rings the software client,
// first-to-answer against the forward number when one is configured.
// Anything else is an outbound dial, rejected with a spoken message if
// the destination is not dialable.
func Decide(cfg Config, to, from string) Decision {
	accountNumber, _ := phone.Normalize(cfg.AccountNumber)
	normalizedTo, ok := phone.Normalize(to)

	if ok && accountNumber != "" && normalizedTo == accountNumber {
		forward := ""
		if cfg.ForwardNumber != "" {
			forward, _ = phone.Normalize(cfg.ForwardNumber)
		}
		return Decision{
			Action:   ActionRing,
			Target:   cfg.ClientIdentity,
			Forward:  forward,
			CallerID: accountNumber,
			Timeout:  cfg.DialTimeout,
		}
	}

	if !ok {
		return Decision{
			Action: ActionReject,
			Say:    "Invalid destination number.",
		}
	}

	return Decision{
		Action:   ActionDial,
		Target:   normalizedTo,
		CallerID: accountNumber,
		Timeout:  cfg.DialTimeout,
	}
}

// TwiML renders the decision as a TwiML response body, without the XML
// declaration; the transport layer prepends it.
func (d Decision) TwiML() string {
	switch d.Action {
	case ActionRing:
		var targets strings.Builder
		targets.WriteString(`<Client>` + escapeXML(d.Target) + `</Client>`)
		if d.Forward != "" {
			targets.WriteString(`<Number>` + escapeXML(d.Forward) + `</Number>`)
		}
		return `<Response><Dial callerId="` + escapeXML(d.CallerID) + `" timeout="` + strconv.Itoa(d.Timeout) + `">` +
			targets.String() + `</Dial></Response>`

	case ActionDial:
		return `<Response><Dial callerId="` + escapeXML(d.CallerID) + `" timeout="` + strconv.Itoa(d.Timeout) + `">` +
			`<Number>` + escapeXML(d.Target) + `</Number></Dial></Response>`

	default:
		return `<Response><Say>` + escapeXML(d.Say) + `</Say><Hangup/></Response>`
	}
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}

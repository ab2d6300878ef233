// Package sms renders customer notification messages from named templates
// and hands them to a pluggable transport. Rendering is pure; only the
// transport touches the outside world.
package sms

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/courtesyinspect/courtesyinspect/pkg/apperr"
)

// MaxSingleSegment is the longest message that fits in one SMS segment,
// counted in code points.
const MaxSingleSegment = 160

// templates maps template name to body. Placeholders are {name} and every
// placeholder must be supplied at render time.
var templates = map[string]string{
	"inspection_complete": "Hi {customer_name}, your {vehicle} inspection at {shop_name} is complete. View your report: {link}",
	"service_recommended": "Hi {customer_name}, we found {issue_count} item(s) needing attention on your {vehicle}. Details: {link}",
	"appointment_reminder": "Hi {customer_name}, reminder: your {vehicle} is scheduled at {shop_name} on {appointment_date}.",
	"thank_you":           "Thank you for visiting {shop_name}, {customer_name}! We appreciate your business.",
	"follow_up":           "Hi {customer_name}, following up on the recommended service for your {vehicle}. Call {shop_name} at {shop_phone} to schedule.",
}

var placeholderRe = regexp.MustCompile(`\{([a-z_]+)\}`)

// Message is a rendered SMS ready for a transport.
type Message struct {
	To       string `json:"to"`
	Body     string `json:"body"`
	Template string `json:"template"`
	Length   int    `json:"length"`
	Segments int    `json:"segments"`
}

// TemplateNames returns the available template names, sorted.
func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render substitutes vars into the named template. Unknown template or a
// missing variable is Invalid; the error names the offender. Length is
// counted in code points, not bytes.
func Render(template string, vars map[string]string) (*Message, error) {
	body, ok := templates[template]
	if !ok {
		return nil, apperr.Ef(apperr.Invalid, "unknown template %q", template)
	}

	var missing []string
	rendered := placeholderRe.ReplaceAllStringFunc(body, func(ph string) string {
		name := ph[1 : len(ph)-1]
		val, ok := vars[name]
		if !ok {
			missing = append(missing, name)
			return ph
		}
		return val
	})
	if len(missing) > 0 {
		return nil, apperr.Ef(apperr.Invalid, "missing template variable %q", missing[0])
	}

	length := utf8.RuneCountInString(rendered)
	segments := 1
	if length > MaxSingleSegment {
		segments = (length + 152) / 153
	}
	return &Message{Body: rendered, Template: template, Length: length, Segments: segments}, nil
}

// Transport delivers a rendered message.
type Transport interface {
	Send(ctx context.Context, msg *Message) error
}

// LogTransport writes messages to the log instead of a carrier. Used in
// development and whenever sending is disabled.
type LogTransport struct {
	Logger zerolog.Logger
}

func (t *LogTransport) Send(_ context.Context, msg *Message) error {
	t.Logger.Info().
		Str("to", msg.To).
		Str("template", msg.Template).
		Int("length", msg.Length).
		Int("segments", msg.Segments).
		Str("body", msg.Body).
		Msg("sms send (log transport)")
	return nil
}

// Service renders and optionally delivers messages. Rendering always
// works; delivery happens only when a transport is configured and sending
// is enabled.
type Service struct {
	transport Transport
	enabled   bool
}

// NewService creates the SMS service. A nil transport disables delivery
// regardless of enabled.
func NewService(transport Transport, enabled bool) *Service {
	return &Service{transport: transport, enabled: enabled}
}

// SendInput carries one send request.
type SendInput struct {
	To       string
	Template string
	Vars     map[string]string
}

// Send renders the template and, when enabled, delivers it. The rendered
// message is returned either way so callers can preview.
func (s *Service) Send(ctx context.Context, in SendInput) (*Message, bool, error) {
	if strings.TrimSpace(in.To) == "" {
		return nil, false, apperr.E(apperr.Invalid, "recipient phone is required")
	}
	msg, err := Render(in.Template, in.Vars)
	if err != nil {
		return nil, false, err
	}
	msg.To = in.To

	if !s.enabled || s.transport == nil {
		return msg, false, nil
	}
	if err := s.transport.Send(ctx, msg); err != nil {
		return nil, false, apperr.Wrap(apperr.Internal, fmt.Sprintf("sms delivery to %s failed", in.To), err)
	}
	return msg, true, nil
}

// Preview renders without any delivery attempt.
func (s *Service) Preview(template string, vars map[string]string) (*Message, error) {
	return Render(template, vars)
}

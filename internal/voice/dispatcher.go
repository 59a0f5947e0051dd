package voice

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/brightsmile-ai/receptionist/internal/appointments"
	"github.com/brightsmile-ai/receptionist/internal/tenancy"
	"github.com/brightsmile-ai/receptionist/pkg/logging"
)

// Tool function names the voice agents are configured with.
const (
	FuncCheckAvailability = "checkAvailability"
	FuncBookAppointment   = "bookAppointment"
)

// issueKeys are the argument names agents use for the visit reason, in
// preference order. Agents are inconsistent about which one they fill in.
var issueKeys = []string{"issue", "reason", "description", "notes", "query"}

// AvailabilityChecker answers slot availability questions.
type AvailabilityChecker interface {
	Check(ctx context.Context, clinicID, date, timeOfDay string) appointments.AvailabilityResult
}

// Booker records appointments.
type Booker interface {
	Book(ctx context.Context, req appointments.BookingRequest) appointments.BookingResult
}

// Dispatcher routes vendor tool calls to the booking operations. Every
// dispatch produces a JSON result; failures surface inside the payload so
// the agent can relay them, never as transport errors.
type Dispatcher struct {
	checker         AvailabilityChecker
	booker          Booker
	defaultClinicID string
	logger          *logging.Logger
}

// DispatcherConfig wires the dispatcher.
type DispatcherConfig struct {
	Checker         AvailabilityChecker
	Booker          Booker
	DefaultClinicID string
	Logger          *logging.Logger
}

// NewDispatcher creates a tool-call dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Checker == nil || cfg.Booker == nil {
		panic("voice: checker and booker are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		checker:         cfg.Checker,
		booker:          cfg.Booker,
		defaultClinicID: cfg.DefaultClinicID,
		logger:          logger,
	}
}

// Dispatch executes the named tool function and returns its JSON result.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]any) json.RawMessage {
	clinicID := d.clinicID(ctx)

	switch name {
	case FuncCheckAvailability:
		// Availability tools are configured with requested_date/requested_time;
		// some agents send plain date/time instead.
		date := stringArg(args, "requested_date", "date")
		timeOfDay := stringArg(args, "requested_time", "time")
		result := d.checker.Check(ctx, clinicID, date, timeOfDay)
		return marshalResult(result)
	case FuncBookAppointment:
		req := appointments.BookingRequest{
			ClinicID: clinicID,
			Name:     stringArg(args, "name"),
			Phone:    stringArg(args, "phone"),
			Issue:    stringArg(args, issueKeys...),
			Date:     stringArg(args, "date"),
			Time:     stringArg(args, "time"),
		}
		result := d.booker.Book(ctx, req)
		return marshalResult(result)
	default:
		d.logger.Warn("unknown tool function", "function", name)
		return json.RawMessage(`{"error":"Unknown function"}`)
	}
}

func (d *Dispatcher) clinicID(ctx context.Context) string {
	if id, ok := tenancy.ClinicIDFromContext(ctx); ok && id != "" {
		return id
	}
	return d.defaultClinicID
}

// stringArg returns the first non-empty string value among the given keys.
func stringArg(args map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := args[key]; ok {
			if s, ok := v.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					return s
				}
			}
		}
	}
	return ""
}

func marshalResult(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		// Result types are plain structs; this cannot happen in practice.
		return json.RawMessage(`{"error":"internal error"}`)
	}
	return data
}

package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brightsmile-ai/receptionist/internal/observability/metrics"
	"github.com/brightsmile-ai/receptionist/internal/schedule"
	"github.com/brightsmile-ai/receptionist/pkg/logging"
)

// Reasons returned to voice agents on a legitimate denial. Malformed input
// gets a conversational Message instead, so the agent knows to ask again
// rather than offer another slot.
const (
	ReasonSlotTaken        = "Slot taken"
	ReasonStoreUnavailable = "Database connection failed"
	ReasonCheckTimeout     = "Availability check timed out"

	promptForDateTime = "I need a specific date and time to check."
)

// AvailabilityResult is the discriminated outcome of an availability check.
// Exactly one of Reason or Message is set when Available is false.
type AvailabilityResult struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Checker answers slot availability questions for voice agents. It never
// returns an error: a live call needs a well-formed answer even when the
// store is down.
type Checker struct {
	repo    Repository
	hours   schedule.Hours
	timeout time.Duration
	logger  *logging.Logger
	metrics *metrics.BookingMetrics
}

// CheckerConfig configures the Checker.
type CheckerConfig struct {
	Repo    Repository
	Hours   schedule.Hours
	Timeout time.Duration
	Logger  *logging.Logger
	Metrics *metrics.BookingMetrics
}

// NewChecker creates an availability checker.
func NewChecker(cfg CheckerConfig) *Checker {
	if cfg.Repo == nil {
		panic("appointments: repository required")
	}
	if cfg.Hours == (schedule.Hours{}) {
		cfg.Hours = schedule.DefaultHours
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Checker{
		repo:    cfg.Repo,
		hours:   cfg.Hours,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
}

// Check evaluates a requested date/time against business hours and existing
// bookings. The business-hours check runs first so out-of-hours requests
// never touch the store.
func (c *Checker) Check(ctx context.Context, clinicID, requestedDate, requestedTime string) AvailabilityResult {
	slot, err := schedule.Slot(requestedDate, requestedTime)
	if err != nil {
		c.metrics.ObserveCheck("invalid_input")
		return AvailabilityResult{Available: false, Message: promptForDateTime}
	}

	if !c.hours.Contains(slot) {
		c.metrics.ObserveCheck("outside_hours")
		return AvailabilityResult{
			Available: false,
			Reason:    fmt.Sprintf("Outside of business hours (%s)", c.hours),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	existing, err := c.repo.FindBySlot(ctx, clinicID, slot)
	if err != nil {
		c.logger.Error("availability: slot lookup failed",
			"error", err, "clinic_id", clinicID, "slot", schedule.Key(slot))
		if errors.Is(err, context.DeadlineExceeded) {
			c.metrics.ObserveCheck("timeout")
			return AvailabilityResult{Available: false, Reason: ReasonCheckTimeout}
		}
		c.metrics.ObserveCheck("store_error")
		return AvailabilityResult{Available: false, Reason: ReasonStoreUnavailable}
	}

	if len(existing) > 0 {
		c.metrics.ObserveCheck("slot_taken")
		return AvailabilityResult{Available: false, Reason: ReasonSlotTaken}
	}

	c.metrics.ObserveCheck("available")
	return AvailabilityResult{Available: true}
}

package reminder

import "time"

const (
	DefaultPollInterval         = 30 * time.Second
	DefaultMedicationWindow     = 40 * time.Second
	DefaultAppointmentLookahead = 10 * time.Minute
)

// Config holds the scheduler cadence and due windows.
type Config struct {
	// PollInterval is the time between two evaluations.
	PollInterval time.Duration
	// MedicationWindow is the half-width of the window around a
	// medication's scheduled minute. Keep it wider than PollInterval so at
	// least one tick lands inside it.
	MedicationWindow time.Duration
	// AppointmentLookahead is how far ahead an appointment becomes due.
	AppointmentLookahead time.Duration
}

// DefaultConfig returns the 30s / 40s / 10min configuration.
func DefaultConfig() Config {
	return Config{
		PollInterval:         DefaultPollInterval,
		MedicationWindow:     DefaultMedicationWindow,
		AppointmentLookahead: DefaultAppointmentLookahead,
	}
}

// Options are millisecond overrides; zero or negative keeps the default.
type Options struct {
	PollIntervalMs         int64 `json:"pollIntervalMs"`
	MedicationWindowMs     int64 `json:"medicationWindowMs"`
	AppointmentLookaheadMs int64 `json:"appointmentLookaheadMs"`
}

// Config applies the overrides on top of DefaultConfig.
func (o Options) Config() Config {
	cfg := DefaultConfig()
	if o.PollIntervalMs > 0 {
		cfg.PollInterval = time.Duration(o.PollIntervalMs) * time.Millisecond
	}
	if o.MedicationWindowMs > 0 {
		cfg.MedicationWindow = time.Duration(o.MedicationWindowMs) * time.Millisecond
	}
	if o.AppointmentLookaheadMs > 0 {
		cfg.AppointmentLookahead = time.Duration(o.AppointmentLookaheadMs) * time.Millisecond
	}
	return cfg
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.MedicationWindow <= 0 {
		c.MedicationWindow = d.MedicationWindow
	}
	if c.AppointmentLookahead <= 0 {
		c.AppointmentLookahead = d.AppointmentLookahead
	}
	return c
}

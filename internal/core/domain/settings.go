package domain

import "time"

// Duration is a time.Duration that reads and writes as a Go duration string
// ("30s", "15m") in configuration files.
type Duration time.Duration

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Settings is the application configuration.
type Settings struct {
	Database   DatabaseSettings   `toml:"database"`
	Ingestion  IngestionSettings  `toml:"ingestion"`
	RollCall   RollCallSettings   `toml:"rollcall"`
	Cache      CacheSettings      `toml:"cache"`
	Congress   CongressSettings   `toml:"congress"`
	OpenStates OpenStatesSettings `toml:"openstates"`
	Legistar   LegistarSettings   `toml:"legistar"`
}

// DatabaseSettings locates the canonical store.
type DatabaseSettings struct {
	// Path is the data directory holding villagevote.db.
	Path string `toml:"path"`
}

// IngestionSettings bounds ingestion runs.
type IngestionSettings struct {
	Workers        int      `toml:"workers"`
	MaxRunDuration Duration `toml:"max_run_duration"`
	RetryAttempts  int      `toml:"retry_attempts"`
	RetryDelay     Duration `toml:"retry_delay"`
}

// RollCallSettings controls roll-call sweeps.
type RollCallSettings struct {
	Delay                 Duration `toml:"delay"`
	MaxConsecutiveMissing int      `toml:"max_consecutive_missing"`
	Congress              int      `toml:"congress"`
	Session               int      `toml:"session"`
}

// CacheSettings holds aggregate cache lifetimes.
type CacheSettings struct {
	AlignmentTTL       Duration `toml:"alignment_ttl"`
	RepresentativesTTL Duration `toml:"representatives_ttl"`
}

// CongressSettings configures the Congress.gov connector.
type CongressSettings struct {
	BaseURL  string `toml:"base_url"`
	APIKey   string `toml:"api_key"`
	Congress int    `toml:"congress"`
	PageSize int    `toml:"page_size"`

	// Pages caps the number of pages fetched per run; 0 means no cap.
	Pages int `toml:"pages"`
}

// OpenStatesSettings configures the Open States connector.
type OpenStatesSettings struct {
	BaseURL      string `toml:"base_url"`
	APIKey       string `toml:"api_key"`
	Jurisdiction string `toml:"jurisdiction"`
	Session      string `toml:"session"`
	PageSize     int    `toml:"page_size"`
	Pages        int    `toml:"pages"`
}

// LegistarSettings configures the Legistar connector.
type LegistarSettings struct {
	Client     string `toml:"client"`
	APIBaseURL string `toml:"api_base_url"`
	WebBaseURL string `toml:"web_base_url"`

	// Days is the look-ahead window for meetings.
	Days      int `toml:"days"`
	MaxEvents int `toml:"max_events"`
}

// Default configuration values.
const (
	DefaultWorkers               = 4
	DefaultMaxRunDuration        = 30 * time.Minute
	DefaultRetryAttempts         = 3
	DefaultRetryDelay            = time.Second
	DefaultRollCallDelay         = 100 * time.Millisecond
	DefaultMaxConsecutiveMissing = 5
	DefaultCongress              = 119
	DefaultAlignmentTTL          = 300 * time.Second
	DefaultRepresentativesTTL    = 60 * time.Second
)

// DefaultSettings returns settings with every default applied.
func DefaultSettings() Settings {
	var s Settings
	s.ApplyDefaults()
	return s
}

// ApplyDefaults fills every unset field with its default.
func (s *Settings) ApplyDefaults() {
	setInt(&s.Ingestion.Workers, DefaultWorkers)
	setDuration(&s.Ingestion.MaxRunDuration, DefaultMaxRunDuration)
	setInt(&s.Ingestion.RetryAttempts, DefaultRetryAttempts)
	setDuration(&s.Ingestion.RetryDelay, DefaultRetryDelay)

	setDuration(&s.RollCall.Delay, DefaultRollCallDelay)
	setInt(&s.RollCall.MaxConsecutiveMissing, DefaultMaxConsecutiveMissing)
	setInt(&s.RollCall.Congress, DefaultCongress)
	setInt(&s.RollCall.Session, 1)

	setDuration(&s.Cache.AlignmentTTL, DefaultAlignmentTTL)
	setDuration(&s.Cache.RepresentativesTTL, DefaultRepresentativesTTL)

	setString(&s.Congress.BaseURL, "https://api.congress.gov/v3")
	setInt(&s.Congress.Congress, DefaultCongress)
	setInt(&s.Congress.PageSize, 50)

	setString(&s.OpenStates.BaseURL, "https://v3.openstates.org")
	setString(&s.OpenStates.Jurisdiction, "az")
	setInt(&s.OpenStates.PageSize, 20)

	setString(&s.Legistar.Client, "phoenix")
	setString(&s.Legistar.APIBaseURL, "https://webapi.legistar.com/v1")
	setInt(&s.Legistar.Days, 30)
	setInt(&s.Legistar.MaxEvents, 10)
}

func setInt(dst *int, def int) {
	if *dst <= 0 {
		*dst = def
	}
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func setDuration(dst *Duration, def time.Duration) {
	if *dst <= 0 {
		*dst = Duration(def)
	}
}

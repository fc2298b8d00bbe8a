// Package config defines server and generator configuration and its loading.
//
// Values are layered: defaults from New, then YAML files, then SURF_*
// environment variables. Nested keys use "__" in env names, e.g.
// SURF_GENERATOR__CURRENT_YEAR.
package config

import (
	"context"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DataDir is the root of published rankings, containing index.json.
	DataDir string `koanf:"data_dir"`

	// DataURL, when set, loads rankings over HTTP instead of from DataDir.
	DataURL string `koanf:"data_url"`

	// WatchData reloads rankings when files under DataDir change.
	WatchData bool `koanf:"watch_data"`

	// ReloadIntervalSec reloads periodically when positive.
	ReloadIntervalSec int `koanf:"reload_interval_sec"`

	// FetchTimeoutMS bounds each HTTP fetch of DataURL.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	// QueueSize bounds the reload job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of reload workers.
	WorkerCount int `koanf:"worker_count"`

	// MaxLimit caps GET /rankings/{id}?limit.
	MaxLimit int `koanf:"max_limit"`

	// TopLimit is the default size of GET /rankings/{id}/top.
	TopLimit int `koanf:"top_limit"`

	// AvatarPrefix is prepended to avatar image paths in API responses.
	AvatarPrefix string `koanf:"avatar_prefix"`

	// RedisAddr switches the ranking store to Redis when set.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	RedisPrefix   string `koanf:"redis_prefix"`

	Generator Generator `koanf:"generator"`
}

// Generator configures one rating generation run.
type Generator struct {
	Discipline    string                        `koanf:"discipline"`
	Gender        string                        `koanf:"gender"`
	InputPaths    []string                      `koanf:"input_paths"`
	AllowedYears  []int                         `koanf:"allowed_years"`
	AllowedEvents []string                      `koanf:"allowed_events"`
	CurrentYear   int                           `koanf:"current_year"`
	ScoringSystem string                        `koanf:"scoring_system"`
	Scoring       map[string]map[string]float64 `koanf:"scoring"`
	EventGroups   map[string]EventGroup         `koanf:"event_groups"`
	Bonuses       Bonuses                       `koanf:"bonuses"`
	Sorting       Toggle                        `koanf:"sorting"`
	Anonymize     Toggle                        `koanf:"anonymization"`
	Output        Output                        `koanf:"output"`
	IndexRoot     string                        `koanf:"index_root"`
}

// Toggle is a feature switch written as `{enabled: true}`.
type Toggle struct {
	Enabled bool `koanf:"enabled"`
}

// EventGroup assigns a coefficient to events whose name contains one of the
// patterns. Groups are matched by ascending Order, then by name.
type EventGroup struct {
	Coefficient float64  `koanf:"coefficient"`
	Events      []string `koanf:"events"`
	Order       int      `koanf:"order"`
}

// Bonuses holds point adjustments applied after the scoring table.
type Bonuses struct {
	ParticipantFactor struct {
		Enabled bool              `koanf:"enabled"`
		Rules   []ParticipantRule `koanf:"rules"`
	} `koanf:"participant_factor"`
	Decay struct {
		Enabled bool    `koanf:"enabled"`
		Factor  float64 `koanf:"factor"`
	} `koanf:"decay"`
	Participation struct {
		Enabled bool    `koanf:"enabled"`
		Points  float64 `koanf:"points"`
	} `koanf:"participation"`
	Rank struct {
		Enabled bool               `koanf:"enabled"`
		Values  map[string]float64 `koanf:"values"`
	} `koanf:"rank"`
}

// ParticipantRule multiplies points for events with Min..Max participants.
// Max may be a number, "inf" or empty.
type ParticipantRule struct {
	Min    int     `koanf:"min"`
	Max    string  `koanf:"max"`
	Factor float64 `koanf:"factor"`
}

// MaxValue returns Max as a number, 0 meaning unbounded.
func (r ParticipantRule) MaxValue() (int, error) {
	m := strings.TrimSpace(strings.ToLower(r.Max))
	if m == "" || m == "inf" {
		return 0, nil
	}
	return strconv.Atoi(m)
}

// Output names the files a generator run writes. Empty paths are skipped.
type Output struct {
	Filename         string   `koanf:"filename"`
	JSONFilename     string   `koanf:"json_filename"`
	RankingJSON      string   `koanf:"ranking_json"`
	TopFilename      string   `koanf:"top_filename"`
	TopCount         int      `koanf:"top_count"`
	EventsJSON       string   `koanf:"events_json"`
	Columns          []string `koanf:"columns"`
	TranslateColumns bool     `koanf:"translate_columns"`
	ConsoleTop       int      `koanf:"console_top"`
}

// New creates a Config with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		DataDir:        "output/rankings",
		FetchTimeoutMS: 5000,
		QueueSize:      1024,
		WorkerCount:    runtime.NumCPU(),
		MaxLimit:       500,
		TopLimit:       5,
		AvatarPrefix:   "img/avatars",
		RedisPrefix:    "surfrating:",
		Generator: Generator{
			CurrentYear:   time.Now().Year(),
			ScoringSystem: "default",
			Sorting:       Toggle{Enabled: true},
			Output: Output{
				Filename:   "output/rating.csv",
				TopCount:   10,
				ConsoleTop: 10,
			},
		},
	}
}

// Package config defines chatgraph configuration structures and loading hooks.
//
// Conventions:
// - Config is the raw, layered view (defaults, file, env, flags).
// - Resolve turns it into an immutable Settings value passed to each stage.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"runtime"
)

// Output formats.
const (
	FormatHTML = "html"
	FormatJSON = "json"
)

// StdoutPath selects standard output as the chart destination.
const StdoutPath = "-"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// User is the display name of the archive owner.
	User string `koanf:"user"`

	// StartDate (inclusive) and EndDate (exclusive) bound the chart, YYYY-MM-DD.
	// An empty EndDate means today.
	StartDate string `koanf:"start_date"`
	EndDate   string `koanf:"end_date"`

	// Timezone is the IANA zone used to map instants to calendar days.
	Timezone string `koanf:"timezone"`

	// TopN is the number of individually displayed people.
	TopN int `koanf:"top_n"`

	// Kernel is gaussian or box.
	Kernel string `koanf:"kernel"`

	// KernelStdevDays is the Gaussian standard deviation in days.
	KernelStdevDays float64 `koanf:"kernel_stdev_days"`

	// HalfWindowDays is the kernel radius in days.
	HalfWindowDays int `koanf:"half_window_days"`

	EnableGroupChats   bool `koanf:"enable_group_chats"`
	WordCountWeighting bool `koanf:"word_count_weighting"`

	// Anonymize replaces displayed names with AnonymizationNames, then the
	// contents of AnonymizationNamesFile, in rank order.
	Anonymize              bool     `koanf:"anonymize"`
	AnonymizationNames     []string `koanf:"anonymization_names"`
	AnonymizationNamesFile string   `koanf:"anonymization_names_file"`

	// NameNormalizationFile is a JSON object mapping raw names to person keys.
	NameNormalizationFile string `koanf:"name_normalization_file"`

	// DedupeMessages suppresses identical messages seen in overlapping archives.
	DedupeMessages bool `koanf:"dedupe_messages"`

	// SmoothWorkers sets the number of parallel smoothing workers.
	SmoothWorkers int `koanf:"smooth_workers"`

	// Output is the chart destination; "-" writes to stdout.
	Output       string `koanf:"output"`
	OutputFormat string `koanf:"output_format"`
	Title        string `koanf:"title"`

	// MetricsFile, when set, receives a Prometheus textfile after the run.
	MetricsFile string `koanf:"metrics_file"`

	// Addr, when set, serves the chart over HTTP instead of writing Output.
	Addr string `koanf:"addr"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		StartDate:          "2012-01-01",
		Timezone:           "Local",
		TopN:               15,
		Kernel:             "gaussian",
		KernelStdevDays:    50,
		HalfWindowDays:     200,
		EnableGroupChats:   true,
		WordCountWeighting: true,
		SmoothWorkers:      runtime.NumCPU(),
		Output:             "chart.html",
		OutputFormat:       FormatHTML,
		Title:              "Message word count by person over time",
	}
}

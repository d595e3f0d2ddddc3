package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/chatgraph/internal/domain/model"
	"github.com/okian/chatgraph/internal/domain/names"
	"github.com/okian/chatgraph/internal/domain/ranking"
	"github.com/okian/chatgraph/internal/domain/smoothing"
)

// Settings is the resolved, immutable pipeline configuration.
type Settings struct {
	User     string
	Start    model.Day
	End      model.Day
	Location *time.Location

	TopN       int
	KernelName string
	Kernel     smoothing.Kernel
	HalfWindow int

	GroupChats bool
	WordCount  bool
	Dedupe     bool

	Anonymize          bool
	AnonymizationNames []string
	Normalizer         *names.Normalizer

	SmoothWorkers int

	Output       string
	OutputFormat string
	Title        string
	MetricsFile  string
	Addr         string
}

// Window returns the smoothing window covering [Start, End).
func (s *Settings) Window() smoothing.Window {
	return smoothing.Window{Start: s.Start, End: s.End, HalfWidth: s.HalfWindow}
}

// RankOptions returns the ranking options derived from s.
func (s *Settings) RankOptions() ranking.Options {
	return ranking.Options{
		TopN:      s.TopN,
		Anonymize: s.Anonymize,
		Names:     s.AnonymizationNames,
		Days:      s.End.Sub(s.Start),
	}
}

// Validate checks values that do not need I/O or the clock.
func (c *Config) Validate() error {
	switch {
	case c.TopN <= 0:
		return fmt.Errorf("%w: top_n must be positive, got %d", ErrInvalidConfig, c.TopN)
	case c.HalfWindowDays <= 0:
		return fmt.Errorf("%w: half_window_days must be positive, got %d", ErrInvalidConfig, c.HalfWindowDays)
	case c.SmoothWorkers <= 0:
		return fmt.Errorf("%w: smooth_workers must be positive, got %d", ErrInvalidConfig, c.SmoothWorkers)
	case c.OutputFormat != FormatHTML && c.OutputFormat != FormatJSON:
		return fmt.Errorf("%w: output_format must be %s or %s, got %q", ErrInvalidConfig, FormatHTML, FormatJSON, c.OutputFormat)
	}
	if _, err := smoothing.NewKernel(c.Kernel, c.KernelStdevDays, c.HalfWindowDays); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Resolve validates c and resolves it against the current time.
func (c *Config) Resolve() (*Settings, error) {
	return c.ResolveAt(time.Now())
}

// ResolveAt validates c and builds Settings. now supplies the end date when
// none is configured.
func (c *Config) ResolveAt(now time.Time) (*Settings, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	user := strings.TrimSpace(c.User)
	if user == "" {
		return nil, fmt.Errorf("%w: user must not be empty", ErrInvalidConfig)
	}

	loc, err := loadLocation(c.Timezone)
	if err != nil {
		return nil, err
	}

	start, err := model.ParseDay(c.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: start_date: %w", ErrInvalidConfig, err)
	}
	end := model.DayOf(now, loc)
	if c.EndDate != "" {
		if end, err = model.ParseDay(c.EndDate); err != nil {
			return nil, fmt.Errorf("%w: end_date: %w", ErrInvalidConfig, err)
		}
	}
	if end <= start {
		return nil, fmt.Errorf("%w: end_date %s must be after start_date %s", ErrInvalidConfig, end, start)
	}

	kernel, err := smoothing.NewKernel(c.Kernel, c.KernelStdevDays, c.HalfWindowDays)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	anon := append([]string(nil), c.AnonymizationNames...)
	if c.AnonymizationNamesFile != "" {
		extra, err := names.LoadList(c.AnonymizationNamesFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
		anon = append(anon, extra...)
	}
	if c.Anonymize && len(anon) < c.TopN {
		return nil, fmt.Errorf("%w: anonymize needs %d names, have %d", ErrInvalidConfig, c.TopN, len(anon))
	}

	norm, err := names.LoadNormalizer(c.NameNormalizationFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	kernelName := c.Kernel
	if kernelName == "" {
		kernelName = smoothing.KernelGaussian
	}

	return &Settings{
		User:               user,
		Start:              start,
		End:                end,
		Location:           loc,
		TopN:               c.TopN,
		KernelName:         kernelName,
		Kernel:             kernel,
		HalfWindow:         c.HalfWindowDays,
		GroupChats:         c.EnableGroupChats,
		WordCount:          c.WordCountWeighting,
		Dedupe:             c.DedupeMessages,
		Anonymize:          c.Anonymize,
		AnonymizationNames: anon,
		Normalizer:         norm,
		SmoothWorkers:      c.SmoothWorkers,
		Output:             c.Output,
		OutputFormat:       c.OutputFormat,
		Title:              c.Title,
		MetricsFile:        c.MetricsFile,
		Addr:               c.Addr,
	}, nil
}

func loadLocation(name string) (*time.Location, error) {
	switch name {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone: %w", ErrInvalidConfig, err)
	}
	return loc, nil
}

// Package config loads the xmldiffview command line configuration.
//
// Configuration is read from a TOML file, for example:
//
//	format = "html"
//	title = "Config diff"
//	indent = 4
//	show_ignored = false
//
// Command line flags override file values.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Output formats.
const (
	FormatText = "text"
	FormatHTML = "html"
)

// Config holds the settings of the xmldiffview tool.
type Config struct {
	// Format is the output format, "text" or "html".
	Format string `toml:"format"`
	// Color enables ANSI colours in text output.
	Color bool `toml:"color"`
	// SideBySide writes text output as two columns.
	SideBySide bool `toml:"side_by_side"`
	// PaneWidth is the column width of side-by-side text output.
	PaneWidth int `toml:"pane_width"`
	// Indent is the number of spaces per nesting level.
	Indent int `toml:"indent"`
	// Title is the heading of HTML output.
	Title string `toml:"title"`
	// ShowIgnored includes nodes excluded by the diffgram options.
	ShowIgnored bool `toml:"show_ignored"`
	// Verbose enables debug logging.
	Verbose bool `toml:"verbose"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Format:      FormatText,
		PaneWidth:   60,
		Indent:      2,
		Title:       "XML Diff",
		ShowIgnored: true,
	}
}

// LoadFromPath reads a TOML file over the defaults and validates the result.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ValidationError describes one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate checks every field and joins all problems into one error.
func (c *Config) Validate() error {
	var errs []error
	switch c.Format {
	case FormatText, FormatHTML:
	default:
		errs = append(errs, ValidationError{"format", fmt.Sprintf("must be %q or %q, got %q", FormatText, FormatHTML, c.Format)})
	}
	if c.Indent < 0 || c.Indent > 16 {
		errs = append(errs, ValidationError{"indent", fmt.Sprintf("must be between 0 and 16, got %d", c.Indent)})
	}
	if c.SideBySide && c.PaneWidth < 10 {
		errs = append(errs, ValidationError{"pane_width", fmt.Sprintf("must be at least 10, got %d", c.PaneWidth)})
	}
	return errors.Join(errs...)
}

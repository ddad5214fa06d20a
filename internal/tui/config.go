package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/language"

	"github.com/Veraticus/expenses/internal/model"
	"github.com/Veraticus/expenses/internal/report"
	"github.com/Veraticus/expenses/internal/tui/themes"
)

// Backend is the storage the browser reads categories from and writes vendor
// categories to.
type Backend interface {
	GetCategories(ctx context.Context) ([]model.Category, error)
	SetVendorCategory(ctx context.Context, vendorID int64, categoryID *int64) error
}

// Config holds TUI configuration.
type Config struct {
	Theme          themes.Theme
	Backend        Backend
	Formatter      *report.Formatter
	ProgramOptions []tea.ProgramOption
	Timeout        time.Duration
	Width          int
	Height         int
	ShowHelp       bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:     themes.Default,
		Formatter: report.NewFormatter(language.AmericanEnglish, time.Local),
		Timeout:   10 * time.Second,
		Width:     80,
		Height:    24,
		ShowHelp:  true,
	}
}

// WithBackend sets the storage used for categories and recategorization.
func WithBackend(backend Backend) Option {
	return func(c *Config) {
		c.Backend = backend
	}
}

// WithFormatter sets how amounts, months and timestamps are rendered.
func WithFormatter(f *report.Formatter) Option {
	return func(c *Config) {
		if f != nil {
			c.Formatter = f
		}
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithHelp toggles the help line.
func WithHelp(show bool) Option {
	return func(c *Config) {
		c.ShowHelp = show
	}
}

// WithProgramOptions passes options to the Bubble Tea program.
func WithProgramOptions(opts ...tea.ProgramOption) Option {
	return func(c *Config) {
		c.ProgramOptions = append(c.ProgramOptions, opts...)
	}
}

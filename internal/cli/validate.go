package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mvr/internal/config"
	"github.com/roach88/mvr/internal/window"
)

// ConfigReport is the validation outcome for one configuration file.
type ConfigReport struct {
	File      string `json:"file"`
	Valid     bool   `json:"valid"`
	Code      string `json:"code,omitempty"`
	Field     string `json:"field,omitempty"`
	Message   string `json:"message,omitempty"`
	Windows   int    `json:"windows,omitempty"`
	Viewports int    `json:"viewports,omitempty"`
	Devices   int    `json:"devices,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool           `json:"valid"`
	Configs []ConfigReport `json:"configs"`
}

func (r ValidationResult) Text() string {
	var b strings.Builder
	for _, c := range r.Configs {
		if c.Valid {
			fmt.Fprintf(&b, "✓ %s: %d window(s), %d viewport(s), %d device(s)\n", c.File, c.Windows, c.Viewports, c.Devices)
			continue
		}
		fmt.Fprintf(&b, "✗ %s\n", c.File)
		if c.Field != "" {
			fmt.Fprintf(&b, "  [%s] %s: %s\n", c.Code, c.Field, c.Message)
		} else {
			fmt.Fprintf(&b, "  [%s] %s\n", c.Code, c.Message)
		}
	}
	return b.String()
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config>...",
		Short: "Validate configuration files",
		Long: `Validate configuration files without opening any windows.

Each file is checked against the configuration schema, then window
settings, viewports and cameras are resolved exactly as the engine
would resolve them.

Exit codes:
  0 - All configurations are valid
  1 - One or more configurations are invalid`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	result := ValidationResult{Valid: true, Configs: make([]ConfigReport, 0, len(paths))}
	for _, path := range paths {
		formatter.VerboseLog("Validating %s", path)
		report := validateConfig(path)
		if !report.Valid {
			result.Valid = false
		}
		result.Configs = append(result.Configs, report)
	}

	if !result.Valid {
		if formatter.Format == "json" {
			if err := formatter.encode(CLIResponse{
				Status: "error",
				Data:   result,
				Error:  &CLIError{Code: ErrCodeConfig, Message: "invalid configuration"},
			}); err != nil {
				return err
			}
		} else {
			fmt.Fprint(formatter.Writer, result.Text())
		}
		return NewExitError(ExitFailure, "invalid configuration")
	}
	return formatter.Success(result)
}

// validateConfig loads path and summarizes what the engine would build.
func validateConfig(path string) ConfigReport {
	report := ConfigReport{File: path}

	cfg, err := config.Load(path)
	if err != nil {
		var le *config.LoadError
		if errors.As(err, &le) {
			report.Code = string(le.Code)
			report.Field = le.Field
			report.Message = le.Message
		} else {
			report.Code = string(config.LoadErrorInvalid)
			report.Message = err.Error()
		}
		return report
	}

	report.Valid = true
	report.Windows = len(cfg.Windows)
	report.Devices = len(cfg.Devices)
	for _, wc := range cfg.Windows {
		// Load has already resolved every window successfully.
		if s, err := wc.WindowSettings(); err == nil {
			report.Viewports += len(window.DefaultCameraConfigs(s))
		}
	}
	return report
}

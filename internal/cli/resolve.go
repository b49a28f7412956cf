package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mvr/internal/datafile"
	"github.com/roach88/mvr/internal/loader"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	Paths  []string
	Config string
}

// ResolveResult reports where data files were found.
type ResolveResult struct {
	SearchPaths []string       `json:"search_paths"`
	Files       []ResolvedFile `json:"files"`
}

// ResolvedFile is the lookup result for one name.
type ResolvedFile struct {
	Name  string `json:"name"`
	Path  string `json:"path,omitempty"`
	Found bool   `json:"found"`
}

func (r ResolveResult) Text() string {
	var b strings.Builder
	for _, f := range r.Files {
		if f.Found {
			fmt.Fprintf(&b, "%s -> %s\n", f.Name, f.Path)
		} else {
			fmt.Fprintf(&b, "%s: not found\n", f.Name)
		}
	}
	return b.String()
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <name>...",
		Short: "Locate data files on the search path",
		Long: `Locate data files the way the engine does.

The search path is the data_paths of --config followed by the config
file's directory, then every --path in order. $(NAME) is replaced by
the environment variable NAME and a leading ~ by the home directory.

Exit codes:
  0 - Every name was found
  1 - One or more names were not found

Examples:
  mvr resolve head_track.yaml --config ./desk.yaml
  mvr resolve shaders/eye.glsl --path '$(MVR_DATA)' --path ~/vr`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, args, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Paths, "path", nil, "additional search path (repeatable)")
	cmd.Flags().StringVar(&opts.Config, "config", "", "configuration whose data_paths to search")

	return cmd
}

func runResolve(opts *ResolveOptions, names []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	resolver := datafile.New()
	if opts.Config != "" {
		cfg, err := loadConfig(opts.Config)
		if err != nil {
			return err
		}
		resolver = loader.NewResolver(cfg)
	}
	for _, p := range opts.Paths {
		resolver.AddSearchPath(p)
	}

	result := ResolveResult{SearchPaths: resolver.SearchPaths()}
	missing := 0
	for _, name := range names {
		path, ok := resolver.Find(name)
		if !ok {
			missing++
		}
		result.Files = append(result.Files, ResolvedFile{Name: name, Path: path, Found: ok})
	}
	formatter.VerboseLog("Search paths: %s", strings.Join(result.SearchPaths, ", "))

	if err := formatter.Success(result); err != nil {
		return err
	}
	if missing > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d file(s) not found", missing))
	}
	return nil
}

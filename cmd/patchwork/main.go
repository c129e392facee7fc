// cmd/patchwork/main.go
package main

import (
	"fmt"
	"os"

	"patchwork/internal/config"
	"patchwork/internal/logging"
	"patchwork/internal/repo"
	"patchwork/internal/snapshot"
	"patchwork/internal/watch"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootFlags struct {
	configPath string
	logLevel   string
	jsonLogs   bool
	importPath string
	exportPath string
	watchDir   string
	noColor    bool
}

var flags rootFlags

var rootCmd = &cobra.Command{
	Use:   "patchwork",
	Short: "Patchwork is an in-memory, diff-compressed record versioning engine",
	Long: `Patchwork keeps a working set of named records, a staging area and a
commit graph in which every commit stores only the patch from its parent.
Drive a repository from a script or an interactive shell, optionally loading
and saving its state as a snapshot file.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flags.noColor {
			color.NoColor = true
		}
	},
}

func init() {
	var runCmd = &cobra.Command{
		Use:   "run <script>",
		Short: "Run a script of repository commands",
		Long: `Runs one command per line against a fresh repository. Execution stops at
the first failing command. Use '-' to read the script from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening script: %w", err)
				}
				defer f.Close()
				in = f
			}

			if err := s.runScript(in); err != nil {
				return err
			}
			return s.finish()
		},
	}

	var shellCmd = &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive repository shell",
		Long:  `Reads commands from stdin until EOF or 'exit'. Failing commands are reported and the shell continues.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.shell(cmd.InOrStdin()); err != nil {
				return err
			}
			return s.finish()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Config file (JSON or YAML), defaults to $"+config.EnvPath)
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.BoolVar(&flags.jsonLogs, "json-logs", false, "Write structured JSON logs")
	pf.StringVarP(&flags.importPath, "import", "i", "", "Load repository state from a snapshot file")
	pf.StringVarP(&flags.exportPath, "export", "o", "", "Save repository state to a snapshot file on exit (.zst compresses)")
	pf.StringVarP(&flags.watchDir, "watch", "w", "", "Mirror files under a directory into the working set")
	pf.BoolVar(&flags.noColor, "no-color", false, "Disable coloured output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(shellCmd)
}

// openSession builds the repository and its collaborators from flags and
// config.
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(config.Path(flags.configPath))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level := cfg.LogLevel
	if flags.logLevel != "" {
		level = flags.logLevel
	}
	newLogger := logging.NewDevelopment
	if flags.jsonLogs {
		newLogger = logging.NewLogger
	}
	log, err := newLogger(level)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	r, err := repo.New(cfg.Options(log.Logger))
	if err != nil {
		return nil, fmt.Errorf("creating repository: %w", err)
	}

	s := &session{
		repo:     r,
		out:      cmd.OutOrStdout(),
		logger:   log.ForRepository(r.ID()),
		snapshot: snapshot.Options{Compress: cfg.Snapshot.Compress, Level: snapshot.DefaultOptions().Level},
		export:   flags.exportPath,
	}

	if flags.importPath != "" {
		if err := s.load(flags.importPath); err != nil {
			return nil, err
		}
	}

	if flags.watchDir != "" {
		w, err := watch.New(flags.watchDir, cfg.Watch.Ignore, s.logger)
		if err != nil {
			return nil, fmt.Errorf("watching %s: %w", flags.watchDir, err)
		}
		s.watcher = w

		initial, err := w.Scan()
		if err != nil {
			w.Close()
			return nil, err
		}
		for _, c := range initial {
			if err := watch.Apply(r, c); err != nil {
				w.Close()
				return nil, fmt.Errorf("loading %s: %w", c.Name, err)
			}
		}
		s.logger.Info("Watching directory",
			zap.String("dir", flags.watchDir),
			zap.Int("files", len(initial)))
	}

	return s, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

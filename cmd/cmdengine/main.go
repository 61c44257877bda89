// Package main provides the cmdengine CLI: an interactive shell, one-shot
// execution and completion, script and golden-file runners, and every
// registered root command mirrored as a subcommand of "run".
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cmdengine/internal/cobrabridge"
	"cmdengine/internal/config"
	"cmdengine/internal/demo"
	"cmdengine/internal/golden"
	"cmdengine/internal/logger"
	"cmdengine/internal/output"
	"cmdengine/internal/shell"
	"cmdengine/internal/version"
	"cmdengine/pkg/manager"
)

type app struct {
	configFile string
	dotEnvFile string
	goldenDir  string
	detailed   bool

	cfg      *config.Config
	manager  *manager.Manager
	shutdown func(context.Context) error
	bridge   *cobrabridge.Bridge
	out      io.Writer
}

func main() {
	a := &app{out: os.Stdout, shutdown: func(context.Context) error { return nil }}
	root, err := a.rootCommand()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	err = root.ExecuteContext(context.Background())
	if shutdownErr := a.shutdown(context.Background()); shutdownErr != nil {
		logger.Error("Worker pool shutdown failed", "error", shutdownErr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) rootCommand() (*cobra.Command, error) {
	root := &cobra.Command{
		Use:   "cmdengine",
		Short: "Command resolution and argument parsing engine",
		Long: `cmdengine resolves command lines against a tree of registered commands,
parses typed arguments and flags, checks permissions and dispatches handlers.
Without a subcommand it starts the interactive shell.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE:              a.runShell,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Config file (default ./cmdengine.yaml or ~/.config/cmdengine/cmdengine.yaml)")
	flags.StringVar(&a.dotEnvFile, "env-file", ".env", "Load CMDENGINE_* settings from this .env file")
	flags.String(config.KeyLogLevel, "", "Set log level (debug|info|warn|error) [default: info]")
	flags.String(config.KeyLogFile, "", "Write logs to file instead of stderr")
	flags.Bool(config.KeyTestMode, false, "Run in deterministic test mode")
	flags.String(config.KeyCoordinator, "", "Execution coordinator (sync|deferred)")
	flags.Int(config.KeyWorkers, 0, "Worker goroutines for the deferred coordinator")
	flags.String(config.KeySender, "", "Name of the sender executing commands")
	flags.StringSlice(config.KeyPermissions, nil, "Permissions granted to the sender (* for all)")
	flags.String(config.KeyOutputMode, "", "Shell output (plain|styled|json)")
	for _, key := range []string{
		config.KeyLogLevel, config.KeyLogFile, config.KeyTestMode, config.KeyCoordinator,
		config.KeyWorkers, config.KeySender, config.KeyPermissions, config.KeyOutputMode,
	} {
		if err := viper.BindPFlag(key, flags.Lookup(key)); err != nil {
			return nil, fmt.Errorf("error binding %s flag: %w", key, err)
		}
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a registered command with cobra-style arguments",
	}
	a.bridge = cobrabridge.New(runCmd, nil)
	catalog := manager.New(manager.WithRegistrationHandler(a.bridge))
	if err := demo.Register(catalog, io.Discard); err != nil {
		return nil, err
	}

	root.AddCommand(
		&cobra.Command{Use: "shell", Short: "Start the interactive shell", Args: cobra.NoArgs, RunE: a.runShell},
		&cobra.Command{Use: "exec <line>", Short: "Execute one command line", Args: cobra.MinimumNArgs(1), RunE: a.runExec},
		&cobra.Command{Use: "complete <line>", Short: "Print completions for a partial line", Args: cobra.ArbitraryArgs, RunE: a.runComplete},
		&cobra.Command{Use: "batch <script>", Short: "Execute a script file line by line", Args: cobra.ExactArgs(1), RunE: a.runBatch},
		runCmd,
		a.goldenCommand(),
		a.versionCommand(),
	)
	return root, nil
}

// setup loads configuration once flags are parsed and builds the manager the
// mirrored commands execute through.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(viper.GetViper(), config.Options{ConfigFile: a.configFile, DotEnvFile: a.dotEnvFile})
	if err != nil {
		return err
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogFile, cfg.TestMode); err != nil {
		return fmt.Errorf("error configuring logger: %w", err)
	}
	m, shutdown, err := a.newManager(cfg, a.out)
	if err != nil {
		return err
	}
	a.cfg, a.manager, a.shutdown = cfg, m, shutdown
	a.bridge.Bind(m)
	a.bridge.SetSender(cfg.Sender)
	logger.Debug("Configured", "command", cmd.Name(), "coordinator", cfg.Coordinator, "sender", cfg.Sender)
	return nil
}

func (a *app) newManager(cfg *config.Config, out io.Writer) (*manager.Manager, func(context.Context) error, error) {
	opts, shutdown, err := cfg.ManagerOptions()
	if err != nil {
		return nil, nil, err
	}
	m := manager.New(opts...)
	if err := demo.Register(m, out); err != nil {
		_ = shutdown(context.Background())
		return nil, nil, err
	}
	return m, shutdown, nil
}

func (a *app) newShell(out io.Writer) *shell.Shell {
	style := "auto"
	if a.cfg.TestMode {
		style = "notty"
	}
	return shell.New(a.manager, a.cfg.Sender,
		shell.WithOutput(out),
		shell.WithStyle(style),
		shell.WithOutputMode(output.ParseMode(a.cfg.OutputMode)),
	)
}

func (a *app) runShell(cmd *cobra.Command, _ []string) error {
	logger.Info("Starting cmdengine shell", "version", version.Version)
	a.newShell(a.out).Run(cmd.Context(), version.GetFormattedVersion())
	return nil
}

func (a *app) runExec(cmd *cobra.Command, args []string) error {
	line := strings.Join(args, " ")
	outcome, err := a.manager.Execute(cmd.Context(), line, a.cfg.Sender).Wait(cmd.Context())
	if err != nil {
		return err
	}
	if outcome.Err != nil {
		return fmt.Errorf("%s", a.manager.Format(outcome.Err))
	}
	return nil
}

func (a *app) runComplete(cmd *cobra.Command, args []string) error {
	line := strings.Join(args, " ")
	for _, candidate := range a.manager.Suggest(line, a.cfg.Sender) {
		fmt.Fprintln(cmd.OutOrStdout(), candidate)
	}
	return nil
}

func (a *app) runBatch(cmd *cobra.Command, args []string) error {
	runner := &golden.Runner{NewShell: func(out io.Writer) (*shell.Shell, error) { return a.newShell(out), nil }}
	output, err := runner.RunScript(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintln(cmd.OutOrStdout(), output)
	}
	return nil
}

func (a *app) goldenCommand() *cobra.Command {
	goldenCmd := &cobra.Command{
		Use:   "golden",
		Short: "Run or record golden-file script tests",
	}
	goldenCmd.PersistentFlags().StringVar(&a.goldenDir, "dir", "testdata/golden", "Directory holding .cmds scripts and .expected files")

	goldenCmd.AddCommand(
		&cobra.Command{
			Use:   "run [test...]",
			Short: "Compare script output with recordings",
			RunE: func(cmd *cobra.Command, args []string) error {
				runner := a.goldenRunner()
				if len(args) == 0 {
					failed, err := runner.RunAll(cmd.Context(), cmd.OutOrStdout())
					if err != nil {
						return err
					}
					if len(failed) > 0 {
						return fmt.Errorf("tests failed: %v", failed)
					}
					return nil
				}
				for _, name := range args {
					if err := runner.RunTest(cmd.Context(), name); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "PASS %s\n", name)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "record <test...>",
			Short: "Record script output as the expected result",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				runner := a.goldenRunner()
				for _, name := range args {
					if err := runner.Record(cmd.Context(), name); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s\n", name)
				}
				return nil
			},
		},
	)
	return goldenCmd
}

// goldenRunner gives every script a fresh synchronous manager so output order
// is deterministic and rate limits never leak between scripts.
func (a *app) goldenRunner() *golden.Runner {
	cfg := *a.cfg
	cfg.Coordinator = config.CoordinatorSync
	return &golden.Runner{
		Dir: a.goldenDir,
		NewShell: func(out io.Writer) (*shell.Shell, error) {
			// synchronous managers hold no pool, so there is nothing to shut down
			m, _, err := a.newManager(&cfg, out)
			if err != nil {
				return nil, err
			}
			return shell.New(m, cfg.Sender, shell.WithOutput(out), shell.WithStyle("notty")), nil
		},
	}
}

func (a *app) versionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			if a.detailed {
				fmt.Fprintln(cmd.OutOrStdout(), version.GetDetailedVersion())
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), version.GetFormattedVersion())
		},
	}
	cmd.Flags().BoolVar(&a.detailed, "detailed", false, "Show detailed build information")
	return cmd
}

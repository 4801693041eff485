package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/confersense/confersense/internal/bus"
	"github.com/confersense/confersense/internal/clipboard"
	"github.com/confersense/confersense/internal/config"
	"github.com/confersense/confersense/internal/daemon"
	"github.com/confersense/confersense/internal/deps"
	"github.com/confersense/confersense/internal/glossary"
	"github.com/confersense/confersense/internal/mcpserver"
	"github.com/confersense/confersense/internal/tui"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// globals holds the persistent flags shared by every subcommand
type globals struct {
	configPath string
	socketDir  string
}

func (g *globals) paths() (bus.Paths, error) {
	if g.socketDir != "" {
		return bus.PathsIn(g.socketDir), nil
	}
	return bus.DefaultPaths()
}

func (g *globals) client() (*bus.Client, error) {
	p, err := g.paths()
	if err != nil {
		return nil, err
	}
	return bus.NewClient(p), nil
}

// loadConfig returns the saved config, or the defaults when none exists
func (g *globals) loadConfig() (*config.Config, error) {
	if g.configPath == "" {
		return config.LoadOrDefault()
	}
	cfg, err := config.LoadFile(g.configPath)
	if errors.Is(err, config.ErrConfigNotFound) {
		return config.DefaultConfig(), nil
	}
	return cfg, err
}

func (g *globals) saveConfig(cfg *config.Config) error {
	if g.configPath == "" {
		return config.Save(cfg)
	}
	return config.SaveFile(cfg, g.configPath)
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "confersense",
		Short:         "Live conference translation from the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/confersense/config.toml)")
	root.PersistentFlags().StringVar(&g.socketDir, "socket-dir", "", "directory holding the daemon socket and PID file")

	root.AddCommand(
		serveCmd(g),
		startCmd(g),
		simpleCmd(g, "stop", "Stop the running session", bus.VerbStop),
		statusCmd(g),
		logCmd(g),
		simpleCmd(g, "reset", "Clear the transcript of an idle session", bus.VerbReset),
		questionCmd(g),
		watchCmd(g),
		glossaryCmd(g),
		configureCmd(g),
		mcpCmd(g),
		doctorCmd(),
		versionCmd(g),
		simpleCmd(g, "quit", "Shut the daemon down", bus.VerbQuit),
	)
	return root
}

func serveCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := config.NewManager(g.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			p, err := g.paths()
			if err != nil {
				return err
			}
			d, err := daemon.New(mgr, p)
			if err != nil {
				return fmt.Errorf("failed to create daemon: %w", err)
			}
			return d.Run()
		},
	}
}

// simpleCmd sends verb and prints the daemon's reply
func simpleCmd(g *globals, use, short, verb string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			resp, err := c.Call(verb)
			if err != nil {
				return fmt.Errorf("failed to %s: %w", use, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return nil
		},
	}
}

func startCmd(g *globals) *cobra.Command {
	var source, target string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start capturing and translating",
		Long: `Start a capture session on the daemon. Without flags the configured
language pair is used; --source and --target must be given together.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (source == "") != (target == "") {
				return errors.New("--source and --target must be given together")
			}
			c, err := g.client()
			if err != nil {
				return err
			}
			var verbArgs []string
			if source != "" {
				verbArgs = []string{source, target}
			}
			resp, err := c.Call(bus.VerbStart, verbArgs...)
			if err != nil {
				return fmt.Errorf("failed to start: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "spoken language code, e.g. ja")
	cmd.Flags().StringVar(&target, "target", "", "translation language code, e.g. en")
	return cmd
}

func statusCmd(g *globals) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the session status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			r, err := daemon.FetchStatus(c)
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(r)
			}
			printStatus(out, r)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw status report")
	return cmd
}

func printStatus(w io.Writer, r daemon.StatusReport) {
	fmt.Fprintf(w, "status:  %s\n", r.Status)
	fmt.Fprintf(w, "pair:    %s -> %s\n", r.Source, r.Target)
	if r.Backend != "" {
		fmt.Fprintf(w, "backend: %s\n", r.Backend)
	}
	fmt.Fprintf(w, "entries: %d (%d translating)\n", r.Entries, r.Pending)
	if r.Error != "" {
		fmt.Fprintf(w, "error:   %s\n", r.Error)
	}
}

func logCmd(g *globals) *cobra.Command {
	var asJSON, copyOut bool
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Print the transcript",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			entries, err := daemon.FetchLog(c)
			if err != nil {
				return fmt.Errorf("failed to read log: %w", err)
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			text := tui.PlainTranscript(entries)
			fmt.Fprint(out, text)
			if copyOut {
				return copyText(cmd, text)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	cmd.Flags().BoolVar(&copyOut, "copy", false, "also copy the transcript to the clipboard")
	return cmd
}

func questionCmd(g *globals) *cobra.Command {
	var (
		url     string
		copyOut bool
	)
	cmd := &cobra.Command{
		Use:   "question",
		Short: "Suggest audience questions from the transcript",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			var verbArgs []string
			if url != "" {
				verbArgs = []string{url}
			}
			out := cmd.OutOrStdout()
			var questions strings.Builder
			_, err = c.Stream(func(l bus.Line) {
				if l.Kind == bus.KindDelta {
					fmt.Fprint(out, l.Text)
					questions.WriteString(l.Text)
				}
			}, bus.VerbQuestion, verbArgs...)
			fmt.Fprintln(out)
			if err != nil {
				return fmt.Errorf("failed to generate questions: %w", err)
			}
			if copyOut {
				return copyText(cmd, questions.String())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "reference page to ground the questions")
	cmd.Flags().BoolVar(&copyOut, "copy", false, "also copy the questions to the clipboard")
	return cmd
}

func copyText(cmd *cobra.Command, text string) error {
	if err := clipboard.New().Copy(cmd.Context(), text); err != nil {
		return fmt.Errorf("failed to copy: %w", err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "copied to clipboard")
	return nil
}

func watchCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the live transcript",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			return tui.Watch(c, cfg.Session.ErrorMarker)
		},
	}
}

func configureCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactive configuration setup",
		Long: `Interactive configuration for confersense.
This will guide you through setting up:
- Source and target languages
- Provider API keys (OpenAI, Groq, JAPAN AI Studio, Deepgram)
- Translation model and speech backends
- Glossary storage and notification preferences`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure(g, cmd.OutOrStdout())
		},
	}
}

func runConfigure(g *globals, out io.Writer) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	result, err := tui.Run(cfg)
	if err != nil {
		return fmt.Errorf("configuration wizard error: %w", err)
	}

	if result.Cancelled {
		fmt.Fprintln(out, "Configuration cancelled.")
		return nil
	}

	if err := result.Config.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := g.saveConfig(result.Config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration saved successfully!")
	fmt.Fprintln(out)
	showNextSteps(g, out)
	return nil
}

func showNextSteps(g *globals, out io.Writer) {
	serviceRunning := false
	if _, err := exec.Command("systemctl", "--user", "is-active", "--quiet", "confersense.service").CombinedOutput(); err == nil {
		serviceRunning = true
	}

	fmt.Fprintln(out, "Next Steps:")
	if serviceRunning {
		fmt.Fprintln(out, "1. The running daemon picks up the new settings at the next start")
	} else {
		fmt.Fprintln(out, "1. Start the daemon: confersense serve (or systemctl --user start confersense.service)")
	}
	fmt.Fprintln(out, "2. Begin translating: confersense start")
	fmt.Fprintln(out, "3. Follow along: confersense watch")
	fmt.Fprintln(out)

	configPath := g.configPath
	if configPath == "" {
		configPath, _ = config.GetConfigPath()
	}
	fmt.Fprintf(out, "Config file location: %s\n", configPath)
}

func mcpCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve glossary and transcript tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			store, err := glossary.Open(cfg.Glossary.Backend, cfg.Glossary.Path)
			if err != nil {
				return err
			}
			defer store.Close()
			c, err := g.client()
			if err != nil {
				return err
			}
			return mcpserver.New(store, c, cfg.Pair(), daemon.Version).ServeStdio()
		},
	}
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools confersense relies on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			missing := 0
			for _, s := range deps.Doctor() {
				if !s.Installed {
					missing++
					fmt.Fprintf(out, "  [ ] %-12s missing (%s)\n", s.Name, s.Purpose)
					continue
				}
				version := s.Version
				if version == "" {
					version = "version unknown"
				}
				fmt.Fprintf(out, "  [x] %-12s %s (%s)\n", s.Name, s.Path, version)
			}
			if missing > 0 {
				fmt.Fprintf(out, "\n%d tool(s) missing; the script backend and log notifications still work.\n", missing)
			}
			return nil
		},
	}
}

func versionCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print client and daemon versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "client: proto=%s version=%s\n", bus.ProtoVer, daemon.Version)
			c, err := g.client()
			if err != nil {
				return err
			}
			resp, err := c.Call(bus.VerbVersion)
			if err != nil {
				fmt.Fprintln(out, "daemon: not running")
				return nil
			}
			fmt.Fprintf(out, "daemon: %s\n", strings.TrimSpace(resp.Message))
			return nil
		},
	}
}

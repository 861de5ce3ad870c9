// Package main provides the CLI entrypoint for reaper.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/reaper/internal/config"
	"github.com/verte-zerg/reaper/internal/logging"
	"github.com/verte-zerg/reaper/internal/model"
	"github.com/verte-zerg/reaper/internal/prompt"
	"github.com/verte-zerg/reaper/internal/replay"
	"github.com/verte-zerg/reaper/internal/stats"
	"github.com/verte-zerg/reaper/internal/statsui"
	"github.com/verte-zerg/reaper/internal/store"
	"github.com/verte-zerg/reaper/internal/tui"
)

const (
	defaultGoal        = 0
	defaultPromptWords = 2
	defaultAutosave    = 5
	defaultCurveWindow = 10
	defaultLogLevel    = "info"
)

var (
	sessionGoal        int
	sessionZen         bool
	sessionPrompt      bool
	sessionPromptWords int
	sessionWordList    string
	sessionAutosave    int

	logLevel   string
	logVerbose bool

	statsSince       string
	statsLast        int
	statsCurveWindow int

	reportEvents bool

	replayYAML bool

	draftDiscard bool
)

var (
	fileCfg  config.FileConfig
	logger   = slog.New(slog.NewTextHandler(io.Discard, nil))
	closeLog = func() error { return nil }
)

func main() {
	rootCmd := newRootCmd()
	err := rootCmd.Execute()
	_ = closeLog()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "reaper",
		Short:             "Write or die: a terminal writing session that punishes pauses",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: setup,
		RunE:              runWriteCmd,
	}

	rootCmd.Flags().IntVar(&sessionGoal, "goal", defaultGoal, "word goal that fulfils the pact (0 disables)")
	rootCmd.Flags().BoolVar(&sessionZen, "zen", false, "start in zen mode (no decay)")
	rootCmd.Flags().BoolVar(&sessionPrompt, "prompt", true, "show a writing prompt")
	rootCmd.Flags().IntVar(&sessionPromptWords, "prompt-words", defaultPromptWords, "seed words per prompt")
	rootCmd.Flags().StringVar(&sessionWordList, "wordlist", "", "prompt word list file (one word per line)")
	rootCmd.Flags().IntVar(&sessionAutosave, "autosave", defaultAutosave, "draft autosave interval in seconds (0 disables)")

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&logVerbose, "verbose", false, "mirror logs to stderr")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newDraftCmd())

	return rootCmd
}

// setup loads the config file and builds the logger for every command.
// The config command tolerates a broken file so it can be fixed.
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	fileCfg, err = config.LoadConfig(config.DefaultConfigPath())
	if err != nil && cmd.Name() != "config" {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)

	opts := logging.Options{Level: logLevel, File: config.DefaultLogPath()}
	if fileCfg.Log.File != nil {
		opts.File = *fileCfg.Log.File
	}
	if logVerbose {
		opts.Stderr = os.Stderr
	}
	l, closeFn, err := logging.New(opts)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	logger = l
	closeLog = closeFn
	slog.SetDefault(logger)
	return nil
}

func runWriteCmd(cmd *cobra.Command, _ []string) error {
	applyIntConfig(cmd, "goal", &sessionGoal, fileCfg.Session.Goal)
	applyBoolConfig(cmd, "zen", &sessionZen, fileCfg.Session.Zen)
	applyBoolConfig(cmd, "prompt", &sessionPrompt, fileCfg.Session.Prompt)
	applyIntConfig(cmd, "prompt-words", &sessionPromptWords, fileCfg.Session.PromptWords)
	applyStringConfig(cmd, "wordlist", &sessionWordList, fileCfg.Session.WordList)
	applyIntConfig(cmd, "autosave", &sessionAutosave, fileCfg.Session.AutosaveSeconds)

	cfg := model.Config{
		Goal:            sessionGoal,
		Zen:             sessionZen,
		Prompt:          sessionPrompt,
		PromptWords:     sessionPromptWords,
		WordListPath:    sessionWordList,
		AutosaveSeconds: sessionAutosave,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	promptText, err := buildPrompt(cfg)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	draft, ok, err := st.LoadDraft(context.Background())
	if err != nil {
		logger.Warn("failed to load draft", "err", err)
	}
	if ok {
		logger.Info("restoring draft", "updated_at", draft.UpdatedAt, "chars", len([]rune(draft.Text)))
	}

	logger.Info("session starting", "goal", cfg.Goal, "zen", cfg.Zen, "autosave_s", cfg.AutosaveSeconds)
	m := tui.NewModel(cfg, st, logger, promptText, draft.Text)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func buildPrompt(cfg model.Config) (string, error) {
	if !cfg.Prompt || cfg.PromptWords == 0 {
		return "", nil
	}
	words := prompt.DefaultWords()
	if cfg.WordListPath != "" {
		loaded, err := prompt.LoadWords(cfg.WordListPath)
		if err != nil {
			return "", fmt.Errorf("failed to load word list %s: %w", cfg.WordListPath, err)
		}
		words = loaded
	}
	return prompt.New().Prompt(words, cfg.PromptWords), nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := writeConfigTemplate(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// writeConfigTemplate creates the config file unless it already exists.
func writeConfigTemplate(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	logger.Info("wrote config template", "path", path)
	return nil
}

func addStatsFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
}

func statsConfig() (model.StatsConfig, error) {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return model.StatsConfig{}, fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsLast < 0 {
		return model.StatsConfig{}, fmt.Errorf("--last must be >= 0")
	}
	if statsCurveWindow < 1 {
		return model.StatsConfig{}, fmt.Errorf("--curve-window must be >= 1")
	}
	return model.StatsConfig{
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}, nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Browse session stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	addStatsFlags(cmd)
	return cmd
}

func runStatsCmd(_ *cobra.Command, _ []string) error {
	cfg, err := statsConfig()
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	m := statsui.NewModel(st, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a plain-text stats report",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	addStatsFlags(cmd)
	cmd.Flags().BoolVar(&reportEvents, "events", false, "dump the last session's event log as YAML")
	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := statsConfig()
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	report, err := stats.BuildReport(ctx, st, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	out := cmd.OutOrStdout()
	if reportEvents {
		return writeLastSessionEvents(ctx, out, st, report.Sessions)
	}
	if err := stats.RenderSummary(out, report.Sessions); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderSessionTable(out, report.Sessions, time.Now(), stats.TerminalWidth()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderEventCounts(out, report.EventCounts); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

type eventRecord struct {
	Seq      int    `yaml:"seq"`
	Type     string `yaml:"type"`
	At       string `yaml:"at"`
	TimeLeft int64  `yaml:"time_left_ms"`
	Status   string `yaml:"status"`
}

type sessionDump struct {
	Session string        `yaml:"session"`
	Ended   string        `yaml:"ended"`
	Events  []eventRecord `yaml:"events"`
}

func writeLastSessionEvents(ctx context.Context, w io.Writer, st *store.Store, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		return fmt.Errorf("no sessions recorded")
	}
	last := sessions[len(sessions)-1]
	events, err := st.ListEvents(ctx, last.SessionID)
	if err != nil {
		return fmt.Errorf("failed to load events: %w", err)
	}
	dump := sessionDump{
		Session: last.UID,
		Ended:   last.EndedAt.Format(time.RFC3339),
		Events:  make([]eventRecord, 0, len(events)),
	}
	for _, ev := range events {
		dump.Events = append(dump.Events, eventRecord{
			Seq:      ev.Seq,
			Type:     ev.Type,
			At:       ev.At.Format("15:04:05.000"),
			TimeLeft: ev.TimeLeftMs,
			Status:   ev.Status,
		})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(dump); err != nil {
		return fmt.Errorf("failed to encode events: %w", err)
	}
	return enc.Close()
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <script.yaml>",
		Short: "Replay a scripted keystroke timeline without a terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  runReplayCmd,
	}
	cmd.Flags().BoolVar(&replayYAML, "yaml", false, "print the result as YAML")
	return cmd
}

func runReplayCmd(cmd *cobra.Command, args []string) error {
	script, err := replay.Load(args[0])
	if err != nil {
		return err
	}
	logger.Info("replaying script", "path", args[0], "steps", len(script.Steps))
	res := replay.Run(script, time.Now())
	if replayYAML {
		return res.WriteYAML(cmd.OutOrStdout())
	}
	if err := res.WriteText(cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newDraftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Print or discard the stored draft",
		Args:  cobra.NoArgs,
		RunE:  runDraftCmd,
	}
	cmd.Flags().BoolVar(&draftDiscard, "discard", false, "delete the stored draft")
	return cmd
}

func runDraftCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	if draftDiscard {
		if err := st.DiscardDraft(ctx); err != nil {
			return fmt.Errorf("failed to discard draft: %w", err)
		}
		logger.Info("draft discarded")
		return nil
	}
	draft, ok, err := st.LoadDraft(ctx)
	if err != nil {
		return fmt.Errorf("failed to load draft: %w", err)
	}
	if !ok {
		return fmt.Errorf("no draft stored")
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), draft.Text); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func openStore() (*store.Store, error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logger.Error("failed to close db", "err", cerr)
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# reaper configuration
# Uncomment a value to enable it. CLI flags override config values.

[session]
# goal = %d               # Word goal that fulfils the pact (0 disables)
# zen = false             # Start in zen mode
# prompt = true           # Show a writing prompt
# prompt-words = %d        # Seed words per prompt
# wordlist = ""           # Prompt word list file, one word per line
# autosave-seconds = %d    # Draft autosave interval (0 disables)

[log]
# level = %q          # debug | info | warn | error
# file = ""               # Log file (default under $XDG_STATE_HOME/reaper)
`,
		defaultGoal,
		defaultPromptWords,
		defaultAutosave,
		defaultLogLevel,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.Goal < 0 {
		return fmt.Errorf("--goal must be >= 0")
	}
	if cfg.PromptWords < 0 {
		return fmt.Errorf("--prompt-words must be >= 0")
	}
	if cfg.AutosaveSeconds < 0 {
		return fmt.Errorf("--autosave must be >= 0")
	}
	return nil
}

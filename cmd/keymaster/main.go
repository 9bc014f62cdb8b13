// Package main provides the CLI entrypoint for keymaster.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/keymaster/internal/config"
	"github.com/verte-zerg/keymaster/internal/generator"
	"github.com/verte-zerg/keymaster/internal/model"
	"github.com/verte-zerg/keymaster/internal/session"
	"github.com/verte-zerg/keymaster/internal/stats"
	"github.com/verte-zerg/keymaster/internal/store"
	"github.com/verte-zerg/keymaster/internal/tui"
	"github.com/verte-zerg/keymaster/internal/wordlist"
)

const (
	defaultDifficulty = string(model.DifficultyMedium)
	defaultMode       = string(model.ModeTimed)
	defaultLogLevel   = "warn"
)

var (
	practiceDifficulty string
	practiceMode       string
	practiceTime       int
	practiceSeed       int64
	logLevel           string

	wordsDifficulty string

	fileCfg config.FileConfig
	logger  = zerolog.Nop()
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "keymaster",
		Short:             "Timed and freestyle typing practice",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: loadSettings,
		RunE:              runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceDifficulty, "difficulty", defaultDifficulty, "word difficulty (easy, medium, hard)")
	rootCmd.Flags().StringVar(&practiceMode, "mode", defaultMode, "practice mode (timed, freestyle)")
	rootCmd.Flags().IntVar(&practiceTime, "time", model.DefaultTimeLimit, "time limit in seconds for timed mode (30-300)")
	rootCmd.Flags().Int64Var(&practiceSeed, "seed", 0, "random seed for word selection (0 picks one from the clock)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newWordsCmd())

	return rootCmd
}

// loadSettings reads .env, the config file and KEYMASTER_* variables, then sets up logging.
func loadSettings(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	loaded, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	loaded, err = config.ApplyEnv(loaded)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	fileCfg = loaded

	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	l, err := newLogger(logLevel)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(out).With().Timestamp().Logger(), nil
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolvePracticeConfig(cmd, fileCfg.Practice)
	if err != nil {
		return err
	}

	lists, err := loadLists(cmd.Context())
	if err != nil {
		return err
	}

	gen := generator.New()
	if cfg.Seed != 0 {
		gen = generator.NewSeeded(cfg.Seed)
	}
	engine := session.New(lists, session.WithGenerator(gen), session.WithLogger(logger))
	if err := engine.Configure(cfg.Difficulty, cfg.Mode, cfg.TimeLimit); err != nil {
		return fmt.Errorf("failed to configure session: %w", err)
	}

	m := tui.NewModel(engine, cfg, logger)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if err := printResults(os.Stdout, engine.Snapshot()); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}

// printResults echoes the last finished session once the alternate screen is gone.
// The plot is sized to the terminal behind w.
func printResults(w io.Writer, snap session.Snapshot) error {
	if snap.State != model.StateEnded {
		return nil
	}
	if _, err := fmt.Fprintln(w, stats.Summary(snap.Result())); err != nil {
		return err
	}
	values := stats.TimelineValues(snap.Timeline)
	if len(values) < 2 {
		return nil
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return stats.PlotSeries(w, "WPM over time", []stats.Series{{Name: "WPM", Values: values}}, 0, 0)
}

// resolvePracticeConfig merges flags over file values and validates the result.
func resolvePracticeConfig(cmd *cobra.Command, file config.PracticeConfig) (model.Config, error) {
	applyStringConfig(cmd, "difficulty", &practiceDifficulty, file.Difficulty)
	applyStringConfig(cmd, "mode", &practiceMode, file.Mode)
	applyIntConfig(cmd, "time", &practiceTime, file.TimeLimit)
	applyInt64Config(cmd, "seed", &practiceSeed, file.Seed)

	difficulty, err := model.ParseDifficulty(practiceDifficulty)
	if err != nil {
		return model.Config{}, fmt.Errorf("invalid --difficulty: %w", err)
	}
	mode, err := model.ParseMode(practiceMode)
	if err != nil {
		return model.Config{}, fmt.Errorf("invalid --mode: %w", err)
	}
	cfg := model.Config{
		Difficulty: difficulty,
		Mode:       mode,
		TimeLimit:  practiceTime,
		Seed:       practiceSeed,
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg model.Config) error {
	if cfg.TimeLimit < model.MinTimeLimit || cfg.TimeLimit > model.MaxTimeLimit {
		return fmt.Errorf("--time must be between %d and %d", model.MinTimeLimit, model.MaxTimeLimit)
	}
	return nil
}

// loadLists returns the builtin word lists extended with the word bank.
// An unreadable word bank leaves the builtin lists alone.
func loadLists(ctx context.Context) (wordlist.Lists, error) {
	lists, err := wordlist.Builtin()
	if err != nil {
		return nil, fmt.Errorf("failed to load builtin words: %w", err)
	}
	st, err := openStore()
	if err != nil {
		logger.Warn().Err(err).Msg("custom words unavailable; using builtin lists")
		return lists, nil
	}
	defer closeStore(st)

	custom, err := st.Lists(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load custom words; using builtin lists")
		return lists, nil
	}
	return lists.Merge(custom), nil
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
		logger.Warn().Err(cerr).Msg("failed to close db")
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		// The file may be broken; this command is how it gets fixed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE:              runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := ensureConfigFile(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// ensureConfigFile writes the commented template unless a config already exists.
func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

func newWordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "words",
		Short: "Manage custom practice words",
	}
	cmd.PersistentFlags().StringVar(&wordsDifficulty, "difficulty", "", "word difficulty (easy, medium, hard); list shows all when empty")

	cmd.AddCommand(&cobra.Command{
		Use:   "add <word>...",
		Short: "Add words to the word bank",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runWordsAddCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <word>...",
		Short: "Remove words from the word bank",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runWordsRemoveCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Import words from a file, one per line",
		Args:  cobra.ExactArgs(1),
		RunE:  runWordsImportCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List custom words",
		Args:  cobra.NoArgs,
		RunE:  runWordsListCmd,
	})
	return cmd
}

// targetDifficulty parses --difficulty for commands that write; it defaults to medium.
func targetDifficulty() (model.Difficulty, error) {
	if strings.TrimSpace(wordsDifficulty) == "" {
		return model.DifficultyMedium, nil
	}
	d, err := model.ParseDifficulty(wordsDifficulty)
	if err != nil {
		return "", fmt.Errorf("invalid --difficulty: %w", err)
	}
	return d, nil
}

func runWordsAddCmd(cmd *cobra.Command, args []string) error {
	return addWords(cmd, args)
}

func runWordsImportCmd(cmd *cobra.Command, args []string) error {
	words, err := wordlist.LoadWords(args[0])
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", args[0], err)
	}
	return addWords(cmd, words)
}

func addWords(cmd *cobra.Command, words []string) error {
	difficulty, err := targetDifficulty()
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	n, err := st.AddWords(cmd.Context(), difficulty, words)
	if err != nil {
		return fmt.Errorf("failed to add words: %w", err)
	}
	logger.Debug().Int("added", n).Str("difficulty", string(difficulty)).Msg("words added")
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Added %d %s to %s\n", n, plural(n, "word"), difficulty); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runWordsRemoveCmd(cmd *cobra.Command, args []string) error {
	difficulty, err := targetDifficulty()
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	n, err := st.RemoveWords(cmd.Context(), difficulty, args)
	if err != nil {
		return fmt.Errorf("failed to remove words: %w", err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Removed %d %s from %s\n", n, plural(n, "word"), difficulty); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runWordsListCmd(cmd *cobra.Command, _ []string) error {
	var difficulty model.Difficulty
	if strings.TrimSpace(wordsDifficulty) != "" {
		d, err := model.ParseDifficulty(wordsDifficulty)
		if err != nil {
			return fmt.Errorf("invalid --difficulty: %w", err)
		}
		difficulty = d
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	words, err := st.ListWords(cmd.Context(), difficulty)
	if err != nil {
		return fmt.Errorf("failed to list words: %w", err)
	}
	if err := stats.RenderWords(cmd.OutOrStdout(), words); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func plural(n int, noun string) string {
	if n == 1 {
		return noun
	}
	return noun + "s"
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

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# keymaster configuration
# Uncomment a value to enable it. KEYMASTER_* environment variables override
# config values and CLI flags override both.

[practice]
# difficulty = %q      # easy, medium or hard
# mode = %q             # timed or freestyle
# time = %d                  # Time limit in seconds for timed mode (%d-%d)
# seed = 0                   # Random seed for word selection (0 picks one from the clock)

[log]
# level = %q              # debug, info, warn or error
`,
		defaultDifficulty,
		defaultMode,
		model.DefaultTimeLimit,
		model.MinTimeLimit,
		model.MaxTimeLimit,
		defaultLogLevel,
	)
}

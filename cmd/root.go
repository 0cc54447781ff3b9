package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/samajhai/internal/ai"
	cfgpkg "github.com/KaramelBytes/samajhai/internal/config"
	"github.com/KaramelBytes/samajhai/internal/insight"
)

var (
	cfgFile string
	debug   bool
	// Overrides applied on top of the loaded config when set
	flagHTTPTimeoutSec int
	flagModel          string

	// Loaded configuration
	cfg *cfgpkg.Global
	// Logger for library components; CLI status lines go through the helpers below.
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
)

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	warnMark = color.New(color.FgYellow).SprintFunc()
	errMark  = color.New(color.FgRed).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:   "samajh",
	Short: "SamajhAI: profile, chart and explain tabular data",
	Long: `SamajhAI turns confusion into clarity. Load a CSV file or a published Google Sheet,
read its profile, ask a language model what it means and chart it, from a browser
dashboard (samajh serve) or straight from the terminal.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errMark("✗ Error:"), err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.samajh/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "model identifier (overrides config)")
}

func loadConfig() {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: config show/set still work without a readable file
		fmt.Fprintf(os.Stderr, "%s failed to load config: %v\n", warnMark("⚠ Warning:"), err)
		return
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("model") && flagModel != "" {
		cfg.Model = flagModel
	}
}

// requireConfig fails fast on configuration the remote calls cannot work without.
func requireConfig() error {
	if cfg == nil {
		return fmt.Errorf("no configuration loaded")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}
	return nil
}

func newRequester() *insight.Requester {
	client := ai.NewClient(ai.Options{
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
		Referer:  cfg.Referer,
		AppTitle: cfg.AppTitle,
		Timeout:  cfg.HTTPTimeout(),
	})
	return insight.NewRequester(client, insight.Config{
		Model:       cfg.Model,
		SummaryRows: cfg.SummaryRows,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}, logger)
}

func success(w io.Writer, format string, a ...any) {
	fmt.Fprintf(w, "%s %s\n", okMark("✓"), fmt.Sprintf(format, a...))
}

func warn(w io.Writer, format string, a ...any) {
	fmt.Fprintf(w, "%s %s\n", warnMark("⚠"), fmt.Sprintf(format, a...))
}

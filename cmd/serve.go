package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/samajhai/internal/chart"
	"github.com/KaramelBytes/samajhai/internal/ui"
)

var flagServeAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the SamajhAI dashboard",
	Long: `Serve the browser dashboard. The model credential is checked before the
listener opens so a misconfigured dashboard never starts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireConfig(); err != nil {
			return err
		}
		addr := cfg.ListenAddr
		if flagServeAddr != "" {
			addr = flagServeAddr
		}
		srv, err := ui.NewServer(ui.Config{
			Addr:           addr,
			Title:          cfg.AppTitle,
			SessionSecret:  cfg.SessionSecret,
			SessionTTL:     cfg.SessionTTL(),
			MaxUploadBytes: cfg.MaxUploadBytes(),
			PreviewRows:    cfg.PreviewRows,
			CookieSecure:   cfg.CookieSecure,
			Requester:      newRequester(),
			Renderer:       chart.NewSVGRenderer(),
			Logger:         logger,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()
		success(cmd.OutOrStdout(), "Dashboard listening on %s (model %s)", addr, cfg.Model)
		if err := srv.Serve(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "listen address (overrides listen_addr)")
	rootCmd.AddCommand(serveCmd)
}

// contextOf returns the command context, falling back to Background when
// the command is run without ExecuteContext.
func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

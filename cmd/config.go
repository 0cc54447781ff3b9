package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/samajhai/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set SamajhAI configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "api_key: %s\n", mask(cfg.APIKey))
		fmt.Fprintf(out, "base_url: %s\n", cfg.BaseURL)
		fmt.Fprintf(out, "model: %s\n", cfg.Model)
		fmt.Fprintf(out, "referer: %s\n", cfg.Referer)
		fmt.Fprintf(out, "app_title: %s\n", cfg.AppTitle)
		fmt.Fprintf(out, "max_tokens: %d\n", cfg.MaxTokens)
		fmt.Fprintf(out, "temperature: %.3f\n", cfg.Temperature)
		fmt.Fprintf(out, "http_timeout_sec: %d\n", cfg.HTTPTimeoutSec)
		fmt.Fprintf(out, "listen_addr: %s\n", cfg.ListenAddr)
		fmt.Fprintf(out, "session_secret: %s\n", mask(cfg.SessionSecret))
		fmt.Fprintf(out, "session_ttl_min: %d\n", cfg.SessionTTLMin)
		fmt.Fprintf(out, "cookie_secure: %t\n", cfg.CookieSecure)
		fmt.Fprintf(out, "max_upload_mb: %d\n", cfg.MaxUploadMB)
		fmt.Fprintf(out, "summary_rows: %d\n", cfg.SummaryRows)
		fmt.Fprintf(out, "preview_rows: %d\n", cfg.PreviewRows)
		if err := cfg.Validate(); err != nil {
			warn(out, "configuration is incomplete:\n%v", err)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if errors.Is(err, fs.ErrNotExist) {
				// first write to an explicit --config path
				c, err = cfgpkg.Defaults()
			}
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := setConfigValue(cfg, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Saved %s", key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func setConfigValue(c *cfgpkg.Global, key, val string) error {
	switch key {
	case "api_key":
		c.APIKey = strings.TrimSpace(val)
	case "base_url":
		c.BaseURL = strings.TrimRight(strings.TrimSpace(val), "/")
	case "model":
		c.Model = val
	case "referer":
		c.Referer = val
	case "app_title":
		c.AppTitle = val
	case "listen_addr":
		c.ListenAddr = val
	case "session_secret":
		c.SessionSecret = val
	case "cookie_secure":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for cookie_secure: %v", val)
		}
		c.CookieSecure = b
	case "max_tokens":
		return setInt(&c.MaxTokens, key, val)
	case "http_timeout_sec":
		return setInt(&c.HTTPTimeoutSec, key, val)
	case "session_ttl_min":
		return setInt(&c.SessionTTLMin, key, val)
	case "max_upload_mb":
		return setInt(&c.MaxUploadMB, key, val)
	case "summary_rows":
		return setInt(&c.SummaryRows, key, val)
	case "preview_rows":
		return setInt(&c.PreviewRows, key, val)
	case "temperature":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 || f > 2 {
			return fmt.Errorf("invalid float for temperature: %v (use 0..2)", val)
		}
		c.Temperature = f
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func setInt(dst *int, key, val string) error {
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return fmt.Errorf("invalid int for %s: %v", key, val)
	}
	*dst = i
	return nil
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}

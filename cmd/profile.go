package cmd

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/KaramelBytes/samajhai/internal/analysis"
	"github.com/KaramelBytes/samajhai/internal/loader"
	"github.com/KaramelBytes/samajhai/internal/utils"
)

var (
	flagProfileJSON bool
	flagProfileHead int
)

// profileReport is the --json shape of the profile command.
type profileReport struct {
	Source  string           `json:"source"`
	Profile analysis.Profile `json:"profile"`
	Columns []profileColumn  `json:"columns"`
	Stats   []profileStat    `json:"describe,omitempty"`
}

type profileColumn struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Missing int    `json:"missing"`
}

// profileStat mirrors analysis.ColumnStats with undefined values as null.
type profileStat struct {
	Name   string   `json:"name"`
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
	Std    *float64 `json:"std"`
	Min    *float64 `json:"min"`
	Q1     *float64 `json:"q1"`
	Median *float64 `json:"median"`
	Q3     *float64 `json:"q3"`
	Max    *float64 `json:"max"`
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func newProfileReport(source string, t *analysis.Table) profileReport {
	rep := profileReport{Source: source, Profile: analysis.ProfileTable(t)}
	for _, c := range t.Columns() {
		rep.Columns = append(rep.Columns, profileColumn{Name: c.Name(), Kind: c.Kind().String(), Missing: c.MissingCount()})
	}
	for _, s := range analysis.Describe(t) {
		rep.Stats = append(rep.Stats, profileStat{
			Name: s.Name, Count: s.Count,
			Mean: finite(s.Mean), Std: finite(s.Std), Min: finite(s.Min),
			Q1: finite(s.Q1), Median: finite(s.Median), Q3: finite(s.Q3), Max: finite(s.Max),
		})
	}
	return rep
}

var profileCmd = &cobra.Command{
	Use:   "profile <file.csv|sheet-url>",
	Short: "Print the dataset profile and summary statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadArg(cmd, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if flagProfileJSON {
			b, err := utils.PrettyJSON(newProfileReport(args[0], t))
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}

		p := analysis.ProfileTable(t)
		mp := message.NewPrinter(language.English)
		success(out, "Loaded %s", args[0])
		tw := table.NewWriter()
		tw.SetOutputMirror(out)
		tw.SetStyle(metricStyle())
		tw.AppendHeader(table.Row{"Rows", "Columns", "Missing Values", "Numeric Columns"})
		tw.AppendRow(table.Row{
			mp.Sprintf("%d", p.Rows), mp.Sprintf("%d", p.Columns),
			mp.Sprintf("%d", p.Missing), mp.Sprintf("%d", p.NumericColumns),
		})
		tw.Render()

		if flagProfileHead > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, t.HeadString(flagProfileHead))
		}
		stats := analysis.Describe(t)
		if len(stats) == 0 {
			warn(out, "no numeric columns to describe")
			return nil
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, analysis.DescribeString(stats))
		return nil
	},
}

func init() {
	profileCmd.Flags().BoolVar(&flagProfileJSON, "json", false, "print the profile as JSON")
	profileCmd.Flags().IntVar(&flagProfileHead, "head", 0, "also print the first N rows")
	rootCmd.AddCommand(profileCmd)
}

// metricStyle keeps the metric labels in the same case as the dashboard.
func metricStyle() table.Style {
	s := table.StyleLight
	s.Format.Header = text.FormatDefault
	return s
}

// loadArg loads a local CSV or a published sheet link.
func loadArg(cmd *cobra.Command, arg string) (*analysis.Table, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	if cfg != nil {
		client.Timeout = cfg.HTTPTimeout()
	}
	return loader.ForArg(arg, client).Load(contextOf(cmd))
}

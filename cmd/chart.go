package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/samajhai/internal/chart"
	"github.com/KaramelBytes/samajhai/internal/utils"
)

var (
	flagChartKind   string
	flagChartX      string
	flagChartY      string
	flagChartOut    string
	flagChartWidth  int
	flagChartHeight int
)

var chartCmd = &cobra.Command{
	Use:   "chart <file.csv|sheet-url>",
	Short: "Draw a chart of the dataset as SVG",
	Long: `Draw a histogram, box plot, scatter plot or bar chart.

Columns default the same way the dashboard picks them: the first numeric
column, then the second for scatter, and the first categorical column for bars.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := chart.ParseKind(flagChartKind)
		if err != nil {
			return err
		}
		t, err := loadArg(cmd, args[0])
		if err != nil {
			return err
		}
		if !chart.Available(t, kind) {
			return fmt.Errorf("%s needs columns this dataset does not have", kind.Label())
		}
		req := chart.Defaults(t, chart.Request{Kind: kind, X: flagChartX, Y: flagChartY})

		r := chart.NewSVGRenderer()
		if flagChartWidth > 0 {
			r.Width = flagChartWidth
		}
		if flagChartHeight > 0 {
			r.Height = flagChartHeight
		}
		var buf bytes.Buffer
		spec, err := chart.Draw(&buf, r, t, req)
		if err != nil {
			return err
		}
		if err := utils.SafeWriteFile(flagChartOut, buf.Bytes(), 0o644); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		success(out, "Wrote %s (%s)", flagChartOut, spec.Title)
		if spec.Dropped > 0 {
			warn(out, "%d rows with a missing or infinite value were left out", spec.Dropped)
		}
		return nil
	},
}

func init() {
	chartCmd.Flags().StringVar(&flagChartKind, "kind", string(chart.KindHistogram), "chart kind: histogram, box, scatter or bar")
	chartCmd.Flags().StringVar(&flagChartX, "x", "", "column for the X axis (category for bar)")
	chartCmd.Flags().StringVar(&flagChartY, "y", "", "column for the Y axis (summed value for bar)")
	chartCmd.Flags().StringVarP(&flagChartOut, "output", "o", "chart.svg", "output SVG path")
	chartCmd.Flags().IntVar(&flagChartWidth, "width", 0, "image width in pixels")
	chartCmd.Flags().IntVar(&flagChartHeight, "height", 0, "image height in pixels")
	rootCmd.AddCommand(chartCmd)
}

package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/baseball-sim/run-expectancy/models"
	"github.com/baseball-sim/run-expectancy/simulation"
)

var (
	// CLI flags for calibration
	calAVG   float64
	calOBP   float64
	calSLG   float64
	calDraws int
	calSeed  int64
)

// calibrateCmd samples plate appearances for one profile and compares the
// observed outcome frequencies with the model rates
var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Check sampled outcome frequencies against a profile's rates",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(cmd); err != nil {
			return err
		}
		if calDraws <= 0 {
			return fmt.Errorf("draws must be positive, got %d", calDraws)
		}

		profile := models.HitterProfile{AVG: calAVG, OBP: calOBP, SLG: calSLG}
		masterSeed := resolveSeed(cmd.Flags().Changed("seed"), calSeed)
		report, err := simulation.Calibrate(profile, calDraws, simulation.NewHitterRNG(masterSeed, simulation.StreamName(profile, 0)))
		if err != nil {
			return err
		}
		return printCalibration(cmd, report)
	},
}

func printCalibration(cmd *cobra.Command, report simulation.CalibrationReport) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "profile %s, %d draws\n", report.Profile.Key(), report.Draws)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "outcome\tcount\tobserved\texpected\tdiff")
	for _, o := range models.Outcomes {
		observed, expected := report.Observed(o), report.ExpectedRate(o)
		fmt.Fprintf(tw, "%s\t%d\t%.5f\t%.5f\t%+.5f\n", o, report.Counts[o], observed, expected, observed-expected)
	}
	return tw.Flush()
}

func init() {
	calibrateCmd.Flags().Float64Var(&calAVG, "avg", 0.300, "Batting average")
	calibrateCmd.Flags().Float64Var(&calOBP, "obp", 0.370, "On-base percentage")
	calibrateCmd.Flags().Float64Var(&calSLG, "slg", 0.500, "Slugging percentage")
	calibrateCmd.Flags().IntVar(&calDraws, "draws", 1_000_000, "Plate appearances to sample")
	calibrateCmd.Flags().Int64Var(&calSeed, "seed", 0, "Seed (default: time-based)")
}

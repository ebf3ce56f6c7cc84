package cmd

import (
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var listProfiles bool

// gridCmd reports the size of the configured grid, or lists its profiles
var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Show the profiles a run would simulate",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if !listProfiles {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), cfg.Grid.Size())
			return err
		}

		w := csv.NewWriter(cmd.OutOrStdout())
		if err := w.Write([]string{"avg", "obp", "slg"}); err != nil {
			return err
		}
		for _, p := range cfg.Grid.Enumerate() {
			if err := w.Write([]string{
				strconv.FormatFloat(p.AVG, 'f', 4, 64),
				strconv.FormatFloat(p.OBP, 'f', 4, 64),
				strconv.FormatFloat(p.SLG, 'f', 4, 64),
			}); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	},
}

func init() {
	gridCmd.Flags().BoolVar(&listProfiles, "list", false, "List every profile as CSV instead of the count")
	addGridFlags(gridCmd)
}

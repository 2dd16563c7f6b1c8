package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"evictioncrm/internal/crm"
)

func seedCmd() *cobra.Command {
	var pretty bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Print the demo snapshot as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			if pretty {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(crm.NewStore().ExportState())
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the output")
	return cmd
}

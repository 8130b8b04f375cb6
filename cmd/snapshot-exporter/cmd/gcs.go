package cmd

import (
	"github.com/spf13/cobra"

	"github.com/voluzi/memwatch/pkg/export"
)

var gcsCmd = &cobra.Command{
	Use:   "gcs",
	Short: "Google Cloud Storage (GCS) operations",
	Long:  "Manage snapshot archive uploads and deletions in Google Cloud Storage (GCS).",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		err := cmd.Parent().PersistentPreRunE(cmd.Parent(), args)
		if err != nil {
			return err
		}
		uploader, err = export.FromProvider(export.GCS)
		return err
	},
}

func init() {
	rootCmd.AddCommand(gcsCmd)
	gcsCmd.AddCommand(uploadCmd)
	gcsCmd.AddCommand(deleteCmd)
}

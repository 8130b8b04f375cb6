package cmd

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <bucket> <name>",
	Short: "Deletes a snapshot archive from external storage",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		bucket, name := args[0], args[1]
		start := time.Now()
		if err := uploader.Delete(cmd.Context(), bucket, name); err != nil {
			log.Fatal(err)
		}
		log.WithField("time-elapsed", time.Since(start)).Info("delete successful")
	},
}

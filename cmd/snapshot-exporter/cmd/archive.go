package cmd

import (
	"github.com/c2h5oh/datasize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/voluzi/memwatch/pkg/export"
)

var archiveCmd = &cobra.Command{
	Use:   "archive <dir> <file>",
	Short: "Compresses a snapshot directory into a local tar.gz archive",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		dir, out := args[0], args[1]
		size, err := export.ArchiveSnapshots(dir, out)
		if err != nil {
			log.Fatal(err)
		}
		log.WithFields(map[string]interface{}{
			"archive": out,
			"size":    datasize.ByteSize(size).HumanReadable(),
		}).Info("archive written")
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
}

package cmd

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/voluzi/memwatch/internal/environ"
	"github.com/voluzi/memwatch/pkg/export"
)

var chunkSize string
var reportPeriod time.Duration

var uploadCmd = &cobra.Command{
	Use:   "upload <dir> <bucket> <name>",
	Short: "Uploads a snapshot directory to external storage",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		dir, bucket, name := args[0], args[1], args[2]
		start := time.Now()
		err := uploader.Upload(cmd.Context(), dir, bucket, name,
			export.WithChunkSize(chunkSize),
			export.WithReportPeriod(reportPeriod),
		)
		if err != nil {
			log.Fatal(err)
		}
		log.WithField("time-elapsed", time.Since(start)).Info("upload successful")
	},
}

func init() {
	uploadCmd.Flags().StringVar(&chunkSize, "chunk-size",
		environ.GetString("CHUNK_SIZE", export.DefaultChunkSize),
		"Chunk size for multi-part uploads",
	)
	uploadCmd.Flags().DurationVar(&reportPeriod, "report-period",
		environ.GetDuration("REPORT_PERIOD", export.DefaultReportPeriod),
		"Period for progress reporting",
	)
}

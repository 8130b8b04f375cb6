package export

import (
	"time"

	"github.com/c2h5oh/datasize"
)

const (
	DefaultChunkSize    = "16MB"
	DefaultReportPeriod = time.Second
)

// UploadOptions configures archive uploads to external storage.
type UploadOptions struct {
	ChunkSize    datasize.ByteSize
	ReportPeriod time.Duration
}

func defaultUploadOptions() *UploadOptions {
	return &UploadOptions{
		ChunkSize:    datasize.MustParseString(DefaultChunkSize),
		ReportPeriod: DefaultReportPeriod,
	}
}

// UploadOption is a functional option for configuring uploads.
type UploadOption func(*UploadOptions)

// WithChunkSize sets the writer chunk size.
func WithChunkSize(size string) UploadOption {
	return func(o *UploadOptions) {
		o.ChunkSize = datasize.MustParseString(size)
	}
}

// WithReportPeriod sets how often upload progress is logged.
func WithReportPeriod(period time.Duration) UploadOption {
	return func(o *UploadOptions) {
		o.ReportPeriod = period
	}
}

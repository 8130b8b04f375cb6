package export

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"cloud.google.com/go/storage"
	"github.com/c2h5oh/datasize"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"
)

const GCS Provider = "gcs"

// GcsUploader ships snapshot archives to a Google Cloud Storage bucket.
type GcsUploader struct {
	client *storage.Client
}

// NewGcsUploader creates an uploader using ambient credentials.
func NewGcsUploader() (*GcsUploader, error) {
	client, err := storage.NewClient(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %v", err)
	}
	return &GcsUploader{client: client}, nil
}

func (g *GcsUploader) Provider() Provider {
	return GCS
}

// Upload compresses dir into gs://bucket/<name>.tar.gz, streaming the
// archive without staging it on disk.
func (g *GcsUploader) Upload(ctx context.Context, dir, bucket, name string, opts ...UploadOption) error {
	options := defaultUploadOptions()
	for _, opt := range opts {
		opt(options)
	}

	dirSize, err := DirSize(dir)
	if err != nil {
		return fmt.Errorf("failed to calculate directory size: %v", err)
	}

	object := fmt.Sprintf("%s.tar.gz", name)
	log.WithFields(map[string]interface{}{
		"size":   datasize.ByteSize(dirSize).HumanReadable(),
		"source": dir,
		"target": fmt.Sprintf("gs://%s/%s", bucket, object),
	}).Info("start compressing and uploading")

	// Connect tar+gzip => GCS through a pipe
	pr, pw := io.Pipe()
	go func() {
		defer pw.Close()
		if err := compressTarGz(dir, pw); err != nil {
			pw.CloseWithError(err)
		}
	}()

	w := g.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ChunkSize = int(options.ChunkSize.Bytes())

	var uploaded atomic.Uint64

	progressCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		ticker := time.NewTicker(options.ReportPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-progressCtx.Done():
				return
			case <-ticker.C:
				log.WithFields(map[string]interface{}{
					"uploaded": datasize.ByteSize(uploaded.Load()).HumanReadable(),
					"dir-size": datasize.ByteSize(dirSize).HumanReadable(),
				}).Info("uploading")
			}
		}
	}()

	buf := make([]byte, 1<<20)
	for {
		n, rerr := pr.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				pr.CloseWithError(werr)
				w.Close()
				return werr
			}
			uploaded.Add(uint64(n))
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			w.Close()
			return rerr
		}
	}

	return w.Close()
}

// Delete removes the archive and any parts sharing its prefix.
func (g *GcsUploader) Delete(ctx context.Context, bucket, name string) error {
	it := g.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: fmt.Sprintf("%s.tar.gz", name)})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return err
		}
		log.WithField("object", attrs.Name).Debug("deleting object")
		if err := g.client.Bucket(bucket).Object(attrs.Name).Delete(ctx); err != nil {
			return err
		}
	}
}

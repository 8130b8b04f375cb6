package export

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/pgzip"
)

// compressTarGz streams dir as a tar.gz archive into out.
func compressTarGz(dir string, out io.Writer) error {
	// Setup parallel gzip
	gz, err := pgzip.NewWriterLevel(out, pgzip.BestSpeed)
	if err != nil {
		return fmt.Errorf("pgzip writer failed: %v", err)
	}
	defer gz.Close()

	tw := tar.NewWriter(gz)
	defer tw.Close()

	// Walk the directory
	return filepath.Walk(dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, relPath)
		if err != nil {
			return err
		}
		hdr.Name = relPath

		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("write tar header: %v", err)
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(tw, f)
		return err
	})
}

// ArchiveSnapshots compresses a snapshot directory into a tar.gz file at
// outPath and returns the archive size in bytes.
func ArchiveSnapshots(dir, outPath string) (int64, error) {
	out, err := os.Create(outPath)
	if err != nil {
		return 0, err
	}

	if err := compressTarGz(dir, out); err != nil {
		out.Close()
		os.Remove(outPath)
		return 0, err
	}
	if err := out.Close(); err != nil {
		return 0, err
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

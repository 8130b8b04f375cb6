package export

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"time"

	"emperror.dev/errors"
)

// SnapshotPattern is the glob matching capture files in a snapshot
// directory.
const SnapshotPattern = "heap-*.heapsnapshot"

// WriteHeapSnapshot captures the allocator's live-object profile into
// dir/heap-<epoch-millis>.heapsnapshot and returns the path. The capture
// content is an opaque profile for offline inspection.
func WriteHeapSnapshot(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create snapshot directory %s", dir)
	}

	path := filepath.Join(dir, fmt.Sprintf("heap-%d.heapsnapshot", time.Now().UnixMilli()))
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create %s", path)
	}

	// materialize up-to-date allocation statistics before profiling
	runtime.GC()

	if err := pprof.Lookup("heap").WriteTo(f, 0); err != nil {
		f.Close()
		os.Remove(path)
		return "", errors.Wrap(err, "failed to write heap profile")
	}

	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// SnapshotSizeEstimate is the space assumed necessary for one capture when
// deciding whether a volume can hold it.
const SnapshotSizeEstimate = 64 << 20 // 64 MiB

// DirSize returns the total size in bytes of all regular files under path.
// Files removed while walking are skipped.
func DirSize(path string) (int64, error) {
	var size int64
	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		size += info.Size()
		return nil
	})
	return size, err
}

package sources

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/shirou/gopsutil/disk"
	"github.com/shirou/gopsutil/mem"
	log "github.com/sirupsen/logrus"
)

// OptimisticFreeBytes is assumed available when the disk probe fails.
const OptimisticFreeBytes = 1 << 30 // 1 GiB

const diskProbeTTL = 30 * time.Second

// SystemSource probes host-wide memory and disk figures. Disk usage lookups
// are memoized with a short TTL since captures may probe the same volume on
// every attempt.
type SystemSource struct {
	diskCache *ttlcache.Cache[string, uint64]
}

// NewSystemSource creates a host probe.
func NewSystemSource() *SystemSource {
	cache := ttlcache.New[string, uint64](
		ttlcache.WithTTL[string, uint64](diskProbeTTL),
		ttlcache.WithDisableTouchOnHit[string, uint64](),
	)
	go cache.Start()
	return &SystemSource{diskCache: cache}
}

// SystemMemory returns total and free bytes for the host.
func (s *SystemSource) SystemMemory() (uint64, uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, err
	}
	return vm.Total, vm.Available, nil
}

// AvailableBytes returns free bytes on the volume holding path. When the
// probe is unavailable it falls back to an optimistic constant rather than
// blocking captures.
func (s *SystemSource) AvailableBytes(path string) uint64 {
	if item := s.diskCache.Get(path); item != nil {
		return item.Value()
	}

	usage, err := disk.Usage(path)
	if err != nil {
		log.WithField("path", path).Warnf("disk probe unavailable, assuming %d bytes free: %v", uint64(OptimisticFreeBytes), err)
		return OptimisticFreeBytes
	}

	s.diskCache.Set(path, usage.Free, ttlcache.DefaultTTL)
	return usage.Free
}

// Stop releases the cache janitor goroutine.
func (s *SystemSource) Stop() {
	s.diskCache.Stop()
}

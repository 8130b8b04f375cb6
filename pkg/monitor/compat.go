package monitor

import (
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Runtime major-version boundaries for compatibility reporting.
const (
	minSupportedMajor = 12
	fullSupportMajor  = 14
)

// Compatibility levels.
const (
	CompatUnsupported = "unsupported"
	CompatBaseline    = "baseline"
	CompatFull        = "full"
	CompatUnknown     = "unknown"
)

// Compatibility is the outcome of a runtime version check.
type Compatibility struct {
	Version string `json:"version"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// CheckRuntimeCompatibility classifies the probed runtime version and
// publishes an informational or warning signal. Notices never block
// operation.
func (m *Monitor) CheckRuntimeCompatibility() Compatibility {
	version := m.version.Version()

	major, err := majorVersion(version)
	if err != nil {
		c := Compatibility{
			Version: version,
			Level:   CompatUnknown,
			Message: fmt.Sprintf("could not parse runtime version %q", version),
		}
		log.Warn(c.Message)
		m.ntf.Emit(EventWarning, c.Message)
		return c
	}

	var c Compatibility
	switch {
	case major < minSupportedMajor:
		c = Compatibility{
			Version: version,
			Level:   CompatUnsupported,
			Message: fmt.Sprintf("runtime %s is below the minimum supported major version %d", version, minSupportedMajor),
		}
		log.Warn(c.Message)
		m.ntf.Emit(EventWarning, c.Message)
	case major < fullSupportMajor:
		c = Compatibility{
			Version: version,
			Level:   CompatBaseline,
			Message: fmt.Sprintf("runtime %s has baseline support", version),
		}
		log.Info(c.Message)
		m.ntf.Emit(EventInfo, c.Message)
	default:
		c = Compatibility{
			Version: version,
			Level:   CompatFull,
			Message: fmt.Sprintf("runtime %s is fully supported", version),
		}
		log.Info(c.Message)
		m.ntf.Emit(EventInfo, c.Message)
	}

	return c
}

func majorVersion(version string) (int, error) {
	v := strings.TrimPrefix(strings.TrimSpace(version), "v")
	head, _, _ := strings.Cut(v, ".")
	return strconv.Atoi(head)
}

package monitor

import (
	"context"
	"os"
	"path/filepath"

	"emperror.dev/errors"
	"github.com/c2h5oh/datasize"
	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/hashstructure/v2"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// AlertRules is the on-disk alert configuration. Sizes are human readable
// strings such as "512MB" or "1.5GB". Empty fields leave the corresponding
// level disabled.
type AlertRules struct {
	Warning  string `yaml:"warning"`
	Critical string `yaml:"critical"`
}

// RulesWatcher reloads alert thresholds from a YAML file whenever it changes
// on disk.
type RulesWatcher struct {
	rulesFile string
	mon       *Monitor
	lastHash  uint64
}

// NewRulesWatcher loads the rules file and applies it immediately. The file
// must exist.
func NewRulesWatcher(rulesFile string, mon *Monitor) (*RulesWatcher, error) {
	if _, err := os.Stat(rulesFile); err != nil {
		return nil, errors.Wrap(err, "rules file does not exist")
	}
	w := &RulesWatcher{
		rulesFile: rulesFile,
		mon:       mon,
	}
	return w, w.loadRules()
}

// Watch blocks reloading the rules file on filesystem events until ctx is
// cancelled. The parent directory is watched so editors that replace the
// file instead of writing in place are still picked up.
func (w *RulesWatcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.rulesFile)); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("could not retrieve event")
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.rulesFile) {
				continue
			}
			if err := w.loadRules(); err != nil {
				log.WithField("file", w.rulesFile).Errorf("failed to reload alert rules: %v", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("could not retrieve error")
			}
			return err
		}
	}
}

func (w *RulesWatcher) loadRules() error {
	body, err := os.ReadFile(w.rulesFile)
	if err != nil {
		return err
	}

	var rules AlertRules
	if err := yaml.Unmarshal(body, &rules); err != nil {
		return errors.Wrap(err, "failed to decode alert rules")
	}

	hash, err := hashstructure.Hash(rules, hashstructure.FormatV2, &hashstructure.HashOptions{
		ZeroNil: true,
	})
	if err != nil {
		return err
	}
	if hash == w.lastHash {
		return nil
	}

	warning, err := parseRuleSize(rules.Warning)
	if err != nil {
		return errors.Wrap(err, "invalid warning size")
	}
	critical, err := parseRuleSize(rules.Critical)
	if err != nil {
		return errors.Wrap(err, "invalid critical size")
	}

	log.WithField("file", w.rulesFile).Info("reloading alert rules")
	w.mon.SetAlertThresholds(warning, critical)
	w.lastHash = hash
	return nil
}

func parseRuleSize(s string) (datasize.ByteSize, error) {
	if s == "" {
		return 0, nil
	}
	return datasize.ParseString(s)
}

package config

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Load decodes the yaml file at path on top of v, so values missing from the
// file keep whatever defaults v already carries. An empty path is a no-op.
func Load(path string, v any) error {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read config %v", path)
	}
	if err := yaml.Unmarshal(b, v); err != nil {
		return errors.Wrapf(err, "failed to parse config %v", path)
	}
	log.Debugf("loaded config %v", path)
	return nil
}

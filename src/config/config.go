package config

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config describes how to open the storage core.
type Config struct {
	// HeapFile is the path of the file holding every page.
	HeapFile string `yaml:"heap_file"`
	// PoolSize is the number of page frames kept in memory.
	PoolSize int `yaml:"pool_size"`
	// DirectIO opens the heap file with O_DIRECT.
	DirectIO bool `yaml:"direct_io"`
	// LogLevel is a logrus level name such as "info" or "debug".
	LogLevel string `yaml:"log_level"`
	// MetricsNamespace prefixes the buffer pool metric names.
	MetricsNamespace string `yaml:"metrics_namespace"`
}

func Default() Config {
	return Config{
		HeapFile:         "toy.rly",
		PoolSize:         64,
		LogLevel:         "info",
		MetricsNamespace: "toy_rdbms",
	}
}

// Load reads a YAML file. Keys missing from the file keep their defaults.
func Load(fileName string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(fileName)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", fileName)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", fileName)
	}
	return cfg, cfg.Validate()
}

func (cfg Config) Validate() error {
	if cfg.HeapFile == "" {
		return errors.New("heap_file must be set")
	}
	if cfg.PoolSize <= 0 {
		return errors.Errorf("pool_size must be positive, got %d", cfg.PoolSize)
	}
	if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
		return errors.Wrap(err, "log_level")
	}
	return nil
}

// Package storage opens the disk manager and buffer pool described by a
// config.Config.
package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/ytakasugi/toy-rdbms/src/config"
	"github.com/ytakasugi/toy-rdbms/src/disk"
)

type Storage struct {
	Disk       *disk.DiskManager
	BufferPool *disk.BufferPoolManager
	Metrics    *disk.Metrics
}

// Open validates cfg, sets the log level, opens the heap file and builds the
// buffer pool. Metrics are registered with reg when it is not nil.
func Open(cfg config.Config, reg prometheus.Registerer) (*Storage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := log.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)

	dm, err := disk.Open(cfg.HeapFile, cfg.DirectIO)
	if err != nil {
		return nil, err
	}
	metrics := disk.NewMetrics(cfg.MetricsNamespace)
	if reg != nil {
		if err := metrics.Register(reg); err != nil {
			dm.Close()
			return nil, err
		}
	}
	log.Infof("Storage opened at %s with %d frames.", cfg.HeapFile, cfg.PoolSize)
	return &Storage{
		Disk:       dm,
		BufferPool: disk.NewBufferPoolManager(cfg.PoolSize, dm, metrics),
		Metrics:    metrics,
	}, nil
}

// Close flushes dirty pages, syncs and closes the heap file.
func (s *Storage) Close() error {
	if err := s.BufferPool.FlushAllPages(); err != nil {
		log.WithError(err).Errorf("Cannot flush buffer pool on close.")
		s.Disk.Close()
		return err
	}
	if err := s.Disk.Sync(); err != nil {
		s.Disk.Close()
		return err
	}
	return s.Disk.Close()
}

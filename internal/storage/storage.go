package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/gengo-go/internal/domain"
)

// Package storage provides the local job ledger.

// Store tracks job ids created through this tool and their last seen status.
type Store interface {
	Close() error
	TrackJob(id, status string) error
	JobStatus(id string) (string, bool, error)
	Forget(id string) error
	Jobs() ([]domain.TrackedJob, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	JobTTL          time.Duration
	CleanupInterval time.Duration
}

const (
	defaultJobTTL          = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.JobTTL <= 0 {
		opts.JobTTL = defaultJobTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                           { return nil }
func (noopStore) TrackJob(string, string) error          { return nil }
func (noopStore) JobStatus(string) (string, bool, error) { return "", false, nil }
func (noopStore) Forget(string) error                    { return nil }
func (noopStore) Jobs() ([]domain.TrackedJob, error)     { return nil, nil }

package config

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type fileStamp struct {
	mod  time.Time
	size int64
}

func stampOf(path string) (fileStamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileStamp{}, err
	}
	return fileStamp{mod: info.ModTime(), size: info.Size()}, nil
}

// WatchCatalog loads salon.yaml, hands it to onUpdate and keeps polling the
// file until ctx is done. A reload that fails validation is logged and the
// previous catalog stays in effect.
func WatchCatalog(ctx context.Context, path string, interval time.Duration, logger zerolog.Logger, onUpdate func(*Catalog)) error {
	if path == "" {
		path = "configs/salon.yaml"
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	logger = logger.With().Str("component", "catalog_watch").Str("path", path).Logger()

	last, err := stampOf(path)
	if err != nil {
		return err
	}
	cat, err := LoadCatalog(path)
	if err != nil {
		return err
	}
	if onUpdate != nil {
		onUpdate(cat)
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			stamp, err := stampOf(path)
			if err != nil {
				logger.Warn().Err(err).Msg("stat salon config")
				continue
			}
			if stamp.mod.Equal(last.mod) && stamp.size == last.size {
				continue
			}
			// An invalid version is not retried until the file changes again.
			last = stamp

			cat, err := LoadCatalog(path)
			if err != nil {
				logger.Error().Err(err).Msg("salon config reload rejected")
				continue
			}
			logger.Info().Msg("salon config reloaded")
			if onUpdate != nil {
				onUpdate(cat)
			}
		}
	}()

	return nil
}

// Package bootstrap turns configuration into the process-level collaborators:
// the record store backend, the idempotency replay store, and the notifier.
package bootstrap

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/dealership-backend/internal/cache"
	"github.com/tbourn/dealership-backend/internal/config"
	"github.com/tbourn/dealership-backend/internal/http/middleware"
	"github.com/tbourn/dealership-backend/internal/notify"
	"github.com/tbourn/dealership-backend/internal/repo"
	"github.com/tbourn/dealership-backend/internal/store"
	"github.com/tbourn/dealership-backend/internal/sysutil"
)

// Store selects the single record store backend for this process. db is
// non-nil only for the SQL backends.
func Store(ctx context.Context, cfg config.Config) (store.Backend, *gorm.DB, error) {
	switch cfg.Store.Backend {
	case config.BackendFile:
		b, err := store.NewFileBackend(cfg.Store.DataDir)
		return b, nil, err
	case config.BackendSQLite, config.BackendPostgres:
		dsn := cfg.Store.DBPath
		if cfg.Store.Backend == config.BackendPostgres {
			dsn = cfg.Store.DatabaseURL
		}
		db, err := repo.Open(repo.Options{Driver: cfg.Store.Backend, DSN: dsn, Tracing: cfg.OTEL.Enabled})
		if err != nil {
			return nil, nil, err
		}
		return repo.NewDocumentStore(db), db, nil
	case config.BackendS3:
		b, err := store.NewS3Backend(ctx, store.S3Options{
			Bucket:          cfg.Store.S3Bucket,
			Prefix:          cfg.Store.S3Prefix,
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
		})
		return b, nil, err
	}
	return nil, nil, errors.New("unsupported STORE_BACKEND " + cfg.Store.Backend)
}

// Replay prefers Redis, then the SQL idempotency table. With neither,
// Idempotency-Key is validated but never replayed.
func Replay(ctx context.Context, redisURL string, db *gorm.DB) (middleware.ReplayStore, func() error) {
	if redisURL != "" {
		client, err := cache.Dial(ctx, redisURL)
		if err == nil {
			return cache.NewReplayStore(client), client.Close
		}
		log.Warn().Err(err).Msg("redis unavailable, falling back")
	}
	if db != nil {
		return repo.NewIdempotencyStore(db), nil
	}
	return nil, nil
}

// Notifier renders the email templates and picks the delivery provider. SES
// signs with the shared AWS credentials in the region SES_REGION names.
func Notifier(ctx context.Context, n config.NotifyConfig, aws config.AWSConfig) (notify.Notifier, error) {
	renderer, err := notify.NewRenderer()
	if err != nil {
		return nil, err
	}

	var mailer notify.Mailer
	switch n.Provider {
	case config.NotifyLog:
		mailer = notify.LogMailer{}
	case config.NotifySMTP:
		mailer = notify.NewSMTPMailer(notify.SMTPOptions{
			Host:     n.SMTPHost,
			Port:     n.SMTPPort,
			Username: n.SMTPUsername,
			Password: n.SMTPPassword,
			From:     n.FromEmail,
			FromName: n.FromName,
		})
	case config.NotifySES:
		mailer, err = notify.NewSESMailer(ctx, notify.SESOptions{
			Region:          sysutil.FirstNonEmpty(n.SESRegion, aws.Region),
			AccessKeyID:     aws.AccessKeyID,
			SecretAccessKey: aws.SecretAccessKey,
			From:            n.FromEmail,
			FromName:        n.FromName,
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("unsupported NOTIFY_PROVIDER " + n.Provider)
	}

	return &notify.Dispatcher{
		Renderer:   renderer,
		Mailer:     mailer,
		AdminEmail: n.AdminEmail,
		SiteName:   n.SiteName,
	}, nil
}

// PurgeIdempotency drops expired replay rows until ctx is done.
func PurgeIdempotency(ctx context.Context, db *gorm.DB, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpired(ctx, db, now.UTC())
			if err != nil {
				log.Warn().Err(err).Msg("idempotency purge failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("rows", n).Msg("idempotency purge")
			}
		}
	}
}

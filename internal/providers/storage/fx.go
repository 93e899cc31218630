package storage

import (
	"context"

	"github.com/smallbiznis/zalci/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.storage",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (Signer, error) {
	switch cfg.Storage.Driver {
	case "gcs":
		signer, err := NewGCSSigner(context.Background(), GCSConfig{
			Bucket:          cfg.Storage.Bucket,
			CredentialsFile: cfg.Storage.CredentialsFile,
		})
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return signer.Close()
			},
		})
		log.Info("storage signer ready", zap.String("driver", "gcs"), zap.String("bucket", cfg.Storage.Bucket))
		return signer, nil
	default:
		log.Info("storage signer ready", zap.String("driver", "supabase"), zap.String("bucket", cfg.Storage.Bucket))
		return NewSupabaseSigner(SupabaseConfig{
			URL:            cfg.Supabase.URL,
			ServiceRoleKey: cfg.Supabase.ServiceRoleKey,
			Bucket:         cfg.Storage.Bucket,
		}), nil
	}
}

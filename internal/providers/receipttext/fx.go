package receipttext

import (
	"github.com/smallbiznis/parkpro/internal/config"
	"github.com/smallbiznis/parkpro/internal/parking/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.receipttext",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) domain.ReceiptTextProvider {
	log = log.Named("providers.receipttext")
	if cfg.ReceiptText.APIKey == "" {
		log.Info("receipt text generator disabled, using template")
		return Unavailable{}
	}
	log.Info("receipt text generator enabled", zap.String("model", cfg.ReceiptText.Model))
	return NewOpenAI(Config{
		APIKey:  cfg.ReceiptText.APIKey,
		BaseURL: cfg.ReceiptText.BaseURL,
		Model:   cfg.ReceiptText.Model,
	})
}

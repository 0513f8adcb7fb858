package cron

import (
	"context"
	"fmt"

	"github.com/northwind-labs/storefront/pkg/db/models"
	"github.com/northwind-labs/storefront/pkg/logger"
	"github.com/northwind-labs/storefront/pkg/metrics"
)

const negativeStockReportLimit = 100

type NegativeStockAuditJobParams struct {
	Logger     *logger.Logger
	Repository negativeStockRepo
	Metrics    *metrics.CronJobMetrics
}

type negativeStockRepo interface {
	ListNegativeStock(ctx context.Context, limit int) ([]models.Product, error)
}

// NewNegativeStockAuditJob reports products oversold by concurrent legacy checkouts.
func NewNegativeStockAuditJob(params NegativeStockAuditJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &negativeStockAuditJob{logg: params.Logger, repo: params.Repository, metrics: params.Metrics}, nil
}

type negativeStockAuditJob struct {
	logg    *logger.Logger
	repo    negativeStockRepo
	metrics *metrics.CronJobMetrics
}

func (j *negativeStockAuditJob) Name() string { return "negative-stock-audit" }

func (j *negativeStockAuditJob) Run(ctx context.Context) error {
	rows, err := j.repo.ListNegativeStock(ctx, negativeStockReportLimit)
	if err != nil {
		return fmt.Errorf("list negative stock: %w", err)
	}
	for _, p := range rows {
		j.logg.Warn(j.logg.WithFields(ctx, map[string]any{
			"product_id": p.ID.String(),
			"name":       p.Name,
			"stock":      p.Stock,
		}), "product oversold")
	}
	j.metrics.SetOversoldProducts(len(rows))
	j.logg.Info(j.logg.WithField(ctx, "oversold_products", len(rows)), "negative stock audit complete")
	return nil
}

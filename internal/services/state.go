package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/stacklend-io/risk-engine/internal/db"
	"github.com/stacklend-io/risk-engine/internal/db/model"
	"github.com/stacklend-io/risk-engine/internal/types"
)

// GetProtocolState returns the persisted protocol state. Before the first
// monitoring cycle it reports the zero state: normal mode, no exposure.
func (s *Service) GetProtocolState(ctx context.Context) (*model.ProtocolState, *types.Error) {
	return s.currentProtocolState(ctx)
}

func (s *Service) GetLatestMonitoringReport(ctx context.Context) (*model.MonitoringReportDocument, *types.Error) {
	doc, err := s.db.GetLatestMonitoringReport(ctx)
	if err != nil {
		if db.IsNotFoundError(err) {
			return nil, types.NewErrorWithMsg(
				http.StatusNotFound, types.NotFound, "no monitoring report recorded yet",
			)
		}
		return nil, types.NewInternalServiceError(
			fmt.Errorf("failed to get latest monitoring report: %w", err),
		)
	}
	return doc, nil
}

func (s *Service) GetMonitoringReports(ctx context.Context, limit int64) ([]*model.MonitoringReportDocument, *types.Error) {
	docs, err := s.db.GetMonitoringReports(ctx, limit)
	if err != nil {
		return nil, types.NewInternalServiceError(
			fmt.Errorf("failed to list monitoring reports: %w", err),
		)
	}
	return docs, nil
}

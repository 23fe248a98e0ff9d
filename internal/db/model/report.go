package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/stacklend-io/risk-engine/internal/types"
)

const MonitoringReportCollection = "monitoring_reports"

// MonitoringReportDocument is the append-only run log of the monitoring
// engine.
type MonitoringReportDocument struct {
	ID          primitive.ObjectID     `bson:"_id"`
	GeneratedAt int64                  `bson:"generated_at"` // Unix wall time
	LogicalTime uint64                 `bson:"logical_time"`
	Report      types.MonitoringReport `bson:"report"`
}

func NewMonitoringReportDocument(report types.MonitoringReport, logicalTime uint64) *MonitoringReportDocument {
	return &MonitoringReportDocument{
		ID:          primitive.NewObjectID(),
		GeneratedAt: time.Now().Unix(),
		LogicalTime: logicalTime,
		Report:      report,
	}
}

package consumer

import (
	"github.com/stacklend-io/risk-engine/internal/queue"
)

type EventConsumer interface {
	Start() error
	PushAssessmentEvent(ev *queue.AssessmentEvent) error
	PushMonitoringReportEvent(ev *queue.MonitoringReportEvent) error
	PushEmergencyModeEvent(ev *queue.EmergencyModeEvent) error
	Stop() error
}

package notifications

import (
	"context"

	"github.com/azure/mentions-dashboard/internal/models"
)

// NotificationInterface defines the contract for notification services
type NotificationInterface interface {
	Enabled() bool
	SendReport(ctx context.Context, report *models.Report) error
	SendAlert(ctx context.Context, alert *models.Alert) error
}

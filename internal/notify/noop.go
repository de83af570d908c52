package notify

import (
	"context"

	"github.com/snapcal/registrar/internal/observability/logger"
)

// Noop logs notifications instead of delivering them. Default in dev.
type Noop struct{}

func (Noop) NotifySuccess(ctx context.Context, externalID, providerEmail string) bool {
	logger.From(ctx).Debug("notify success (noop)",
		logger.Component("notify.noop"),
		logger.ExternalID(externalID),
		logger.Email(providerEmail),
	)
	return true
}

func (Noop) NotifyFailure(ctx context.Context, externalID, reason string) bool {
	logger.From(ctx).Debug("notify failure (noop)",
		logger.Component("notify.noop"),
		logger.ExternalID(externalID),
		logger.String("reason", reason),
	)
	return true
}

var _ Notifier = Noop{}

package events

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/meddist/internal-api/internal/domain"
)

type Publisher interface {
	PublishInventoryChanged(ctx context.Context, event domain.InventoryChanged) error
}

// Fanout publishes each event to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) PublishInventoryChanged(ctx context.Context, event domain.InventoryChanged) error {
	var errs []error
	for _, p := range f {
		if err := p.PublishInventoryChanged(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// LogPublisher only logs events. It is used when Kafka is disabled.
type LogPublisher struct{}

func (LogPublisher) PublishInventoryChanged(_ context.Context, event domain.InventoryChanged) error {
	zap.L().Debug("inventory changed",
		zap.Stringer("product_id", event.ProductID),
		zap.Stringer("location_id", event.LocationID),
		zap.Stringer("channel_id", event.ChannelID),
		zap.String("change_type", string(event.ChangeType)),
		zap.Int("quantity", event.Quantity),
	)

	return nil
}

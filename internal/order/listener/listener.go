package listener

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	discountdto "github.com/fekuna/omnipos-backoffice/internal/discount/dto"
	loyaltydto "github.com/fekuna/omnipos-backoffice/internal/loyalty/dto"
	loyaltyuc "github.com/fekuna/omnipos-backoffice/internal/loyalty/usecase"
	"github.com/fekuna/omnipos-backoffice/internal/order"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/broker"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// UsageRecorder is the part of discount.UseCase the listener needs.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, input *discountdto.RecordUsageInput) error
}

// PointsAwarder is the part of loyalty.UseCase the listener needs.
type PointsAwarder interface {
	AwardPoints(ctx context.Context, input *loyaltydto.PointsInput) (*loyaltydto.LedgerEntry, error)
	PointsForOrder(total decimal.Decimal) int
}

type OrderListener struct {
	reader    broker.Reader
	discounts UsageRecorder
	loyalty   PointsAwarder
	logger    logger.ZapLogger
	backoff   time.Duration
}

func NewOrderListener(reader broker.Reader, discounts UsageRecorder, loyalty PointsAwarder, log logger.ZapLogger) *OrderListener {
	return &OrderListener{
		reader:    reader,
		discounts: discounts,
		loyalty:   loyalty,
		logger:    log,
		backoff:   time.Second,
	}
}

// Start consumes until ctx is done.
func (l *OrderListener) Start(ctx context.Context) {
	l.logger.Info("Starting Order Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Order Kafka Listener")
			return
		default:
			msg, err := l.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.backoff):
				}
				continue
			}
			l.Handle(ctx, msg.Value)
		}
	}
}

// Handle processes one encoded event. Unknown event types are ignored.
func (l *OrderListener) Handle(ctx context.Context, value []byte) {
	var event order.CompletedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}
	if event.EventType != order.EventOrderCompleted {
		return
	}

	l.logger.Info("Processing OrderCompleted event", zap.String("order_id", event.OrderID))

	if event.DiscountID != nil {
		err := l.discounts.RecordUsage(ctx, &discountdto.RecordUsageInput{
			MerchantID: event.MerchantID,
			DiscountID: *event.DiscountID,
			OrderID:    event.OrderID,
			CustomerID: event.CustomerID,
		})
		if err != nil {
			l.logger.Error("Failed to record discount usage",
				zap.String("order_id", event.OrderID),
				zap.String("discount_id", *event.DiscountID),
				zap.Error(err),
			)
		}
	}

	if event.CustomerID != nil {
		points := l.loyalty.PointsForOrder(event.Total)
		if points <= 0 {
			return
		}
		_, err := l.loyalty.AwardPoints(ctx, &loyaltydto.PointsInput{
			MerchantID:  event.MerchantID,
			CustomerID:  *event.CustomerID,
			OrderID:     &event.OrderID,
			Points:      points,
			Description: "Order " + event.OrderID,
		})
		if err != nil && !errors.Is(err, loyaltyuc.ErrAlreadyAwarded) {
			l.logger.Error("Failed to award loyalty points",
				zap.String("order_id", event.OrderID),
				zap.String("customer_id", *event.CustomerID),
				zap.Error(err),
			)
		}
	}
}

package samcartwebhook

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/samcart-relay/internal/samcart"
	"github.com/angelmondragon/samcart-relay/pkg/enums"
	pkgerrors "github.com/angelmondragon/samcart-relay/pkg/errors"
	"github.com/angelmondragon/samcart-relay/pkg/logger"
	"github.com/angelmondragon/samcart-relay/pkg/utmify"
)

type orderMapper interface {
	Map(ctx context.Context, event samcart.Event, checkoutURL string) (*utmify.Order, error)
}

type orderSender interface {
	Send(ctx context.Context, order *utmify.Order) (*utmify.Acknowledgement, error)
}

type ServiceParams struct {
	Mapper orderMapper
	Sender orderSender
	Logger *logger.Logger
}

// Service runs one notification through validation, mapping and delivery.
type Service struct {
	mapper orderMapper
	sender orderSender
	logger *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Mapper == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order mapper required")
	}
	if params.Sender == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order sender required")
	}
	return &Service{
		mapper: params.Mapper,
		sender: params.Sender,
		logger: params.Logger,
	}, nil
}

// Result summarizes a delivered order.
type Result struct {
	OrderID         string
	Status          enums.OrderStatus
	Attempts        int
	Acknowledgement *utmify.Acknowledgement
}

// HandleEvent validates, maps and delivers the notification. Errors carry a
// pkg/errors code: VALIDATION_ERROR, MAPPING_ERROR or one of the DELIVERY_* codes.
func (s *Service) HandleEvent(ctx context.Context, event samcart.Event, checkoutURL string) (*Result, error) {
	if err := samcart.ValidateStructure(ctx, event); err != nil {
		return nil, err
	}

	orderID := event.OrderID()
	ctx = s.logger.WithOrderID(ctx, orderID)
	start := time.Now()

	order, err := s.mapper.Map(ctx, event, checkoutURL)
	if err != nil {
		return nil, err
	}

	ack, err := s.sender.Send(ctx, order)
	if err != nil {
		return nil, err
	}

	ctx = s.logger.WithFields(ctx, map[string]any{
		"status":      string(order.Status),
		"attempts":    ack.Attempts,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	s.logger.Info(ctx, fmt.Sprintf("samcart order %s relayed", order.OrderID))

	return &Result{
		OrderID:         order.OrderID,
		Status:          order.Status,
		Attempts:        ack.Attempts,
		Acknowledgement: ack,
	}, nil
}

package status

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/m3rciful/grocerybot/core/logger"
	"github.com/m3rciful/grocerybot/shop/domain"
)

// OrderStore updates the stored status and returns the updated order with its lines.
type OrderStore interface {
	UpdateStatus(ctx context.Context, orderID int64, status domain.OrderStatus) (domain.Order, error)
}

// ChangeRequest is an operator's status change.
type ChangeRequest struct {
	OrderID int64
	Status  domain.OrderStatus
}

// ParseChangeRequest reads "<order_id> <status>" as typed after /status.
func ParseChangeRequest(payload string) (ChangeRequest, error) {
	fields := strings.Fields(payload)
	if len(fields) != 2 {
		return ChangeRequest{}, fmt.Errorf("status: expected <order_id> <status>")
	}
	var id int64
	if _, err := fmt.Sscan(strings.TrimPrefix(fields[0], "#"), &id); err != nil {
		return ChangeRequest{}, fmt.Errorf("status: bad order id %q", fields[0])
	}
	req := ChangeRequest{OrderID: id, Status: domain.OrderStatus(strings.ToLower(fields[1]))}
	return req, req.Validate()
}

// Validate checks the order id and status.
func (r ChangeRequest) Validate() error {
	statuses := make([]any, 0, len(domain.OrderStatuses))
	for _, s := range domain.OrderStatuses {
		statuses = append(statuses, s)
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.OrderID, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.Status, validation.Required, validation.In(statuses...)),
	)
}

// Service applies status changes and notifies the linked message.
type Service struct {
	orders OrderStore
	linker *Linker
}

// NewService builds a status service.
func NewService(orders OrderStore, linker *Linker) *Service {
	return &Service{orders: orders, linker: linker}
}

// ChangeStatus stores the new status, then refreshes the customer's message.
// A failed refresh is logged; the store is the source of truth.
func (s *Service) ChangeStatus(ctx context.Context, req ChangeRequest) (domain.Order, Outcome, error) {
	if err := req.Validate(); err != nil {
		return domain.Order{}, OutcomeSkipped, err
	}
	order, err := s.orders.UpdateStatus(ctx, req.OrderID, req.Status)
	if err != nil {
		return domain.Order{}, OutcomeSkipped, err
	}
	logger.Info(ctx, "shop.status", "status.change",
		slog.Int64("order_id", order.ID),
		slog.String("order_status", string(order.Status)),
	)
	outcome, err := s.linker.OnStatusChanged(ctx, order)
	if err != nil {
		logger.Warn(ctx, "shop.status", "status.sync", slog.Int64("order_id", order.ID), logger.Err(err))
	}
	return order, outcome, nil
}

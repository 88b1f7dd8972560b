package application

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/bizops-platform/inventory-service/pkg/errors"
	"github.com/bizops-platform/inventory-service/pkg/logging"
	"github.com/bizops-platform/inventory-service/pkg/metrics"

	"github.com/bizops-platform/inventory-service/internal/domain"
)

// StockApplicationService handles stock ledger use cases: item creation,
// supply intake into the buffer pool, buffer-to-stock transfers and the
// read side of the ledger.
type StockApplicationService struct {
	ledger       *ledger
	stockRepo    domain.StockItemRepository
	movementRepo domain.MovementRepository
	publisher    domain.EventPublisher
	metrics      *metrics.Metrics
	logger       *logging.Logger
}

// NewStockApplicationService creates a new StockApplicationService
func NewStockApplicationService(
	stockRepo domain.StockItemRepository,
	movementRepo domain.MovementRepository,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
	logger *logging.Logger,
) *StockApplicationService {
	return &StockApplicationService{
		ledger:       newLedger(stockRepo, movementRepo, m, logger),
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
		publisher:    publisher,
		metrics:      m,
		logger:       logger,
	}
}

// CreateItem creates a new stock item with an opening balance
func (s *StockApplicationService) CreateItem(ctx context.Context, cmd CreateItemCommand) (*StockItemDTO, error) {
	price, err := domain.NewMoney(cmd.UnitPriceCents, cmd.Currency)
	if err != nil {
		return nil, apperrors.ErrValidation(err.Error())
	}

	item, err := domain.NewStockItem(cmd.SKU, cmd.ProductName, price, cmd.OpeningQty, cmd.OpeningBuffer)
	if err != nil {
		return nil, apperrors.ErrValidation(err.Error())
	}

	if err := s.stockRepo.Insert(ctx, item); err != nil {
		if errors.Is(err, domain.ErrDuplicateSKU) {
			return nil, apperrors.ErrConflict(fmt.Sprintf("item %s already exists", cmd.SKU))
		}
		s.logger.Error("Failed to create item", "sku", cmd.SKU, "error", err)
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	s.logger.Info("Created stock item", "sku", cmd.SKU, "quantity", cmd.OpeningQty, "bufferStock", cmd.OpeningBuffer)
	return ToStockItemDTO(item), nil
}

// AddBuffer records incoming supply into an item's buffer pool
func (s *StockApplicationService) AddBuffer(ctx context.Context, cmd AddBufferCommand) (*StockItemDTO, error) {
	update, err := s.ledger.applyWithRetry(ctx, cmd.SKU, func(item *domain.StockItem) error {
		if err := item.AddBuffer(cmd.Quantity); err != nil {
			return apperrors.ErrValidation(err.Error())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.ledger.recordMovement(ctx, cmd.SKU, domain.MovementAddBuffer,
		cmd.Quantity, update.before, update.after, "", cmd.Actor)
	publishEvents(ctx, s.publisher, s.logger, update.item.GetDomainEvents())

	s.logger.Info("Added buffer stock", "sku", cmd.SKU, "quantity", cmd.Quantity)
	return ToStockItemDTO(update.item), nil
}

// TransferBuffer moves counted-in buffer units into on-hand stock
func (s *StockApplicationService) TransferBuffer(ctx context.Context, cmd TransferBufferCommand) (*StockItemDTO, error) {
	update, err := s.ledger.applyWithRetry(ctx, cmd.SKU, func(item *domain.StockItem) error {
		if err := item.TransferBuffer(cmd.Quantity); err != nil {
			return apperrors.ErrValidation(err.Error())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.ledger.recordMovement(ctx, cmd.SKU, domain.MovementTransfer,
		cmd.Quantity, update.before, update.after, "", cmd.Actor)
	publishEvents(ctx, s.publisher, s.logger, update.item.GetDomainEvents())

	s.logger.Info("Transferred buffer to stock", "sku", cmd.SKU, "quantity", cmd.Quantity)
	return ToStockItemDTO(update.item), nil
}

// GetItem retrieves a stock item by SKU
func (s *StockApplicationService) GetItem(ctx context.Context, query GetItemQuery) (*StockItemDTO, error) {
	item, err := s.stockRepo.FindBySKU(ctx, query.SKU)
	if err != nil {
		s.logger.Error("Failed to get item", "sku", query.SKU, "error", err)
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if item == nil {
		return nil, apperrors.ErrNotFoundWithID("item", query.SKU)
	}
	return ToStockItemDTO(item), nil
}

// ListItems retrieves stock items with pagination
func (s *StockApplicationService) ListItems(ctx context.Context, query ListItemsQuery) ([]*StockItemDTO, error) {
	items, err := s.stockRepo.FindAll(ctx, query.Limit, query.Offset)
	if err != nil {
		s.logger.Error("Failed to list items", "error", err)
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	dtos := make([]*StockItemDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, ToStockItemDTO(item))
	}
	return dtos, nil
}

// ListMovements retrieves the movement log for a SKU, newest first
func (s *StockApplicationService) ListMovements(ctx context.Context, query ListMovementsQuery) ([]*MovementDTO, error) {
	movements, err := s.movementRepo.FindBySKU(ctx, query.SKU, query.Limit, query.Offset)
	if err != nil {
		s.logger.Error("Failed to list movements", "sku", query.SKU, "error", err)
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}

	dtos := make([]*MovementDTO, 0, len(movements))
	for _, movement := range movements {
		dtos = append(dtos, ToMovementDTO(movement))
	}
	return dtos, nil
}

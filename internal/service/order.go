package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/kmalykh/webstore/internal/domain/models"
	"github.com/kmalykh/webstore/internal/storage"
)

var (
	// ErrEmptyOrder — заказ без позиций не имеет смысла.
	ErrEmptyOrder = errors.New("order must contain at least one item")
	// ErrUnknownProduct — в заказе указан несуществующий товар.
	ErrUnknownProduct = errors.New("unknown product")
	// ErrInvalidQuantity — количество в позиции должно быть положительным.
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// OrderItemInput — позиция из запроса на создание заказа.
type OrderItemInput struct {
	ProductID int64 `json:"productId" validate:"required"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// OrderService определяет операции над заказами.
type OrderService interface {
	Create(ctx context.Context, userID int64, items []OrderItemInput) (*models.Order, error)
	ListForUser(ctx context.Context, userID int64) ([]*models.Order, error)
	Get(ctx context.Context, userID, orderID int64) (*models.Order, error)
}

type orderService struct {
	log         *slog.Logger
	db          *sql.DB
	productRepo storage.ProductStorage
	orderRepo   storage.OrderStorage
}

func NewOrderService(log *slog.Logger, db *sql.DB, productRepo storage.ProductStorage, orderRepo storage.OrderStorage) OrderService {
	return &orderService{
		log:         log,
		db:          db,
		productRepo: productRepo,
		orderRepo:   orderRepo,
	}
}

// Create оформляет заказ по принципу "всё или ничего": сначала в одной
// транзакции проверяются все позиции, и только потом пишутся строки заказа.
// Если хотя бы один товар не найден, транзакция откатывается и в БД не
// остаётся ни заказа, ни позиций. Название и цена товара снимаются в позицию
// на момент оформления, сумма считается в decimal без плавающей точки
func (s *orderService) Create(ctx context.Context, userID int64, items []OrderItemInput) (*models.Order, error) {
	const op = "service.OrderService.Create"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int("items", len(items)))

	if len(items) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyOrder)
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidQuantity)
		}
	}

	logger.Info("starting order transaction")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	order := &models.Order{
		UserID:      userID,
		Status:      models.OrderStatusPending,
		TotalAmount: decimal.Zero,
	}

	// цены читаются внутри транзакции, чтобы расчёт суммы и снимки позиций
	// были согласованы с состоянием каталога на момент записи заказа
	for _, item := range items {
		product, err := s.productRepo.GetProductByIDTx(ctx, tx, item.ProductID)
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			if errors.Is(err, storage.ErrProductNotFound) {
				logger.Warn("unknown product in order", slog.Int64("productID", item.ProductID))
				return nil, fmt.Errorf("%s: product %d: %w", op, item.ProductID, ErrUnknownProduct)
			}
			logger.Error("failed to get product", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to get product: %w", op, err)
		}

		order.Items = append(order.Items, &models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    item.Quantity,
		})
		order.TotalAmount = order.TotalAmount.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	if err := s.orderRepo.CreateOrderTx(ctx, tx, order); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("order created", slog.Int64("orderID", order.ID), slog.String("total", order.TotalAmount.String()))
	return order, nil
}

// ListForUser возвращает заказы только самого пользователя, новые первыми
func (s *orderService) ListForUser(ctx context.Context, userID int64) ([]*models.Order, error) {
	const op = "service.OrderService.ListForUser"

	orders, err := s.orderRepo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		s.log.Error("failed to get orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get orders: %w", op, err)
	}
	return orders, nil
}

// Get возвращает заказ, только если он принадлежит userID
func (s *orderService) Get(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	const op = "service.OrderService.Get"

	order, err := s.orderRepo.GetOrderByID(ctx, orderID, userID)
	if err != nil {
		if !errors.Is(err, storage.ErrOrderNotFound) {
			s.log.Error("failed to get order", slog.String("op", op), slog.Any("error", err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/kmalykh/webstore/internal/domain/models"
	"github.com/kmalykh/webstore/internal/storage"
)

// ErrNegativePrice — цена товара не может быть отрицательной.
var ErrNegativePrice = errors.New("price must not be negative")

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ProductInput — данные для создания или полного обновления товара.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    *string
}

// ProductService определяет операции над каталогом.
type ProductService interface {
	// List возвращает страницу каталога и общее число товаров под фильтром.
	List(ctx context.Context, search string, page, pageSize int) ([]*models.Product, int, error)
	Get(ctx context.Context, id int64) (*models.Product, error)
	Create(ctx context.Context, in ProductInput) (*models.Product, error)
	Update(ctx context.Context, id int64, in ProductInput) error
	Delete(ctx context.Context, id int64) error
}

type productService struct {
	log         *slog.Logger
	productRepo storage.ProductStorage
}

func NewProductService(log *slog.Logger, productRepo storage.ProductStorage) ProductService {
	return &productService{
		log:         log,
		productRepo: productRepo,
	}
}

func (s *productService) List(ctx context.Context, search string, page, pageSize int) ([]*models.Product, int, error) {
	const op = "service.ProductService.List"
	logger := s.log.With(slog.String("op", op), slog.String("search", search), slog.Int("page", page))

	// приводим параметры страницы к разумным значениям
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	total, err := s.productRepo.CountProducts(ctx, search)
	if err != nil {
		logger.Error("failed to count products", slog.Any("error", err))
		return nil, 0, fmt.Errorf("%s: failed to count products: %w", op, err)
	}

	products, err := s.productRepo.ListProducts(ctx, search, pageSize, (page-1)*pageSize)
	if err != nil {
		logger.Error("failed to list products", slog.Any("error", err))
		return nil, 0, fmt.Errorf("%s: failed to list products: %w", op, err)
	}

	return products, total, nil
}

func (s *productService) Get(ctx context.Context, id int64) (*models.Product, error) {
	const op = "service.ProductService.Get"

	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if !errors.Is(err, storage.ErrProductNotFound) {
			s.log.Error("failed to get product", slog.String("op", op), slog.Any("error", err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return product, nil
}

func (s *productService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	const op = "service.ProductService.Create"
	logger := s.log.With(slog.String("op", op), slog.String("name", in.Name))

	if in.Price.IsNegative() {
		return nil, fmt.Errorf("%s: %w", op, ErrNegativePrice)
	}

	product, err := s.productRepo.CreateProduct(ctx, &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		ImageURL:    in.ImageURL,
	})
	if err != nil {
		logger.Error("failed to create product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create product: %w", op, err)
	}

	logger.Info("product created", slog.Int64("productID", product.ID))
	return product, nil
}

func (s *productService) Update(ctx context.Context, id int64, in ProductInput) error {
	const op = "service.ProductService.Update"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", id))

	if in.Price.IsNegative() {
		return fmt.Errorf("%s: %w", op, ErrNegativePrice)
	}

	err := s.productRepo.UpdateProduct(ctx, &models.Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		ImageURL:    in.ImageURL,
	})
	if err != nil {
		if !errors.Is(err, storage.ErrProductNotFound) {
			logger.Error("failed to update product", slog.Any("error", err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("product updated")
	return nil
}

func (s *productService) Delete(ctx context.Context, id int64) error {
	const op = "service.ProductService.Delete"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", id))

	if err := s.productRepo.DeleteProduct(ctx, id); err != nil {
		if !errors.Is(err, storage.ErrProductNotFound) {
			logger.Error("failed to delete product", slog.Any("error", err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("product deleted")
	return nil
}

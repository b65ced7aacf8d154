package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/kmalykh/webstore/internal/domain/models"
	"github.com/kmalykh/webstore/internal/storage"
)

func TestGetUserByEmail_Success(t *testing.T) {
	// Создаем sqlmock для эмуляции базы данных.
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "email", "pass_hash", "created_at"}).
		AddRow(int64(1), "test@example.com", []byte("hashed-password"), time.Now())

	mock.ExpectQuery("SELECT id, email, pass_hash, created_at FROM users WHERE email = \\$1").
		WithArgs("test@example.com").WillReturnRows(rows)

	user, err := repo.GetUserByEmail(ctx, "test@example.com")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "test@example.com", user.Email)
	assert.Equal(t, []byte("hashed-password"), user.PassHash)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "email", "pass_hash", "created_at"})
	mock.ExpectQuery("SELECT id, email, pass_hash, created_at FROM users WHERE email = \\$1").
		WithArgs("absent@example.com").WillReturnRows(rows)

	user, err := repo.GetUserByEmail(ctx, "absent@example.com")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
	assert.Nil(t, user)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByID_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "email", "pass_hash", "created_at"}).
		AddRow(int64(3), "test@example.com", []byte("hashed-password"), time.Now())

	mock.ExpectQuery("SELECT id, email, pass_hash, created_at FROM users WHERE id = \\$1").
		WithArgs(int64(3)).WillReturnRows(rows)

	user, err := repo.GetUserByID(ctx, 3)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), user.ID)
	assert.Equal(t, "test@example.com", user.Email)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)
	ctx := context.Background()

	createdAt := time.Now()
	mock.ExpectQuery("INSERT INTO users \\(email, pass_hash\\) VALUES \\(\\$1, \\$2\\) RETURNING id, created_at").
		WithArgs("test@example.com", []byte("hash")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(5), createdAt))

	user, err := repo.CreateUser(ctx, &models.User{Email: "test@example.com", PassHash: []byte("hash")})
	assert.NoError(t, err)
	assert.Equal(t, int64(5), user.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)
	ctx := context.Background()

	// Нарушение уникального индекса по email должно давать ErrEmailTaken
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("test@example.com", []byte("hash")).
		WillReturnError(&pq.Error{Code: "23505"})

	user, err := repo.CreateUser(ctx, &models.User{Email: "test@example.com", PassHash: []byte("hash")})
	assert.ErrorIs(t, err, storage.ErrEmailTaken)
	assert.Nil(t, user)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProductByID_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewProductRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "name", "description", "price", "image_url", "created_at", "updated_at"}).
		AddRow(int64(1), "t-shirt", "cotton", "299.00", nil, time.Now(), time.Now())

	mock.ExpectQuery("SELECT id, name, description, price, image_url, created_at, updated_at FROM products WHERE id = \\$1").
		WithArgs(int64(1)).WillReturnRows(rows)

	product, err := repo.GetProductByID(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, "t-shirt", product.Name)
	assert.True(t, product.Price.Equal(decimal.RequireFromString("299.00")))
	assert.Nil(t, product.ImageURL)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProductByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewProductRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "name", "description", "price", "image_url", "created_at", "updated_at"})
	mock.ExpectQuery("SELECT id, name, description, price, image_url, created_at, updated_at FROM products WHERE id = \\$1").
		WithArgs(int64(99)).WillReturnRows(rows)

	product, err := repo.GetProductByID(ctx, 99)
	assert.ErrorIs(t, err, storage.ErrProductNotFound)
	assert.Nil(t, product)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListProducts_WithSearch(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewProductRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "name", "description", "price", "image_url", "created_at", "updated_at"}).
		AddRow(int64(1), "t-shirt", "cotton", "299.00", nil, time.Now(), time.Now()).
		AddRow(int64(2), "shirt", "formal", "499.00", nil, time.Now(), time.Now())

	mock.ExpectQuery("SELECT id, name, description, price, image_url, created_at, updated_at FROM products").
		WithArgs("shirt", 10, 0).WillReturnRows(rows)

	products, err := repo.ListProducts(ctx, "shirt", 10, 0)
	assert.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, "t-shirt", products[0].Name)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListProducts_TransientErrorRetried(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewProductRepository(db)
	ctx := context.Background()

	// Первая попытка падает с ошибкой соединения (класс 08), вторая успешна
	mock.ExpectQuery("SELECT id, name, description, price, image_url, created_at, updated_at FROM products").
		WithArgs("", 10, 0).
		WillReturnError(&pq.Error{Code: "08006"})

	rows := sqlmock.NewRows([]string{"id", "name", "description", "price", "image_url", "created_at", "updated_at"}).
		AddRow(int64(1), "t-shirt", "cotton", "299.00", nil, time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, name, description, price, image_url, created_at, updated_at FROM products").
		WithArgs("", 10, 0).WillReturnRows(rows)

	products, err := repo.ListProducts(ctx, "", 10, 0)
	assert.NoError(t, err)
	assert.Len(t, products, 1)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountProducts(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewProductRepository(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM products").
		WithArgs("shirt").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	total, err := repo.CountProducts(ctx, "shirt")
	assert.NoError(t, err)
	assert.Equal(t, 7, total)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProduct_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewProductRepository(db)
	ctx := context.Background()

	mock.ExpectExec("UPDATE products").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateProduct(ctx, &models.Product{ID: 99, Name: "x", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, storage.ErrProductNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteProduct_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewProductRepository(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM products WHERE id = \\$1").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.DeleteProduct(ctx, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderTx_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	tx, err := db.Begin()
	assert.NoError(t, err)

	createdAt := time.Now()
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(int64(10), "pending", decimal.RequireFromString("598.00")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(3), createdAt))

	mock.ExpectQuery("INSERT INTO order_items").
		WithArgs(int64(3), int64(1), "t-shirt", decimal.RequireFromString("299.00"), 2).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	order := &models.Order{
		UserID:      10,
		Status:      models.OrderStatusPending,
		TotalAmount: decimal.RequireFromString("598.00"),
		Items: []*models.OrderItem{
			{ProductID: 1, ProductName: "t-shirt", UnitPrice: decimal.RequireFromString("299.00"), Quantity: 2},
		},
	}

	err = repo.CreateOrderTx(ctx, tx, order)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), order.ID)
	assert.Equal(t, int64(3), order.Items[0].OrderID)
	assert.Equal(t, int64(7), order.Items[0].ID)

	mock.ExpectCommit()
	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderTx_ItemInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	tx, err := db.Begin()
	assert.NoError(t, err)

	mock.ExpectQuery("INSERT INTO orders").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(3), time.Now()))
	mock.ExpectQuery("INSERT INTO order_items").
		WillReturnError(errors.New("insert failed"))

	order := &models.Order{
		UserID:      10,
		Status:      models.OrderStatusPending,
		TotalAmount: decimal.NewFromInt(100),
		Items: []*models.OrderItem{
			{ProductID: 1, ProductName: "t-shirt", UnitPrice: decimal.NewFromInt(100), Quantity: 1},
		},
	}

	err = repo.CreateOrderTx(ctx, tx, order)
	assert.Error(t, err)

	mock.ExpectRollback()
	assert.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderByID_OwnedByAnotherUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	ctx := context.Background()

	// Заказ существует, но принадлежит другому пользователю: запрос с
	// фильтром по user_id не вернёт строк, результат — ErrOrderNotFound
	rows := sqlmock.NewRows([]string{"id", "user_id", "status", "total_amount", "created_at"})
	mock.ExpectQuery("SELECT id, user_id, status, total_amount, created_at FROM orders WHERE id = \\$1 AND user_id = \\$2").
		WithArgs(int64(3), int64(999)).WillReturnRows(rows)

	order, err := repo.GetOrderByID(ctx, 3, 999)
	assert.ErrorIs(t, err, storage.ErrOrderNotFound)
	assert.Nil(t, order)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrdersByUserID_WithItems(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	ctx := context.Background()

	now := time.Now()
	orderRows := sqlmock.NewRows([]string{"id", "user_id", "status", "total_amount", "created_at"}).
		AddRow(int64(2), int64(10), "pending", "598.00", now).
		AddRow(int64(1), int64(10), "pending", "299.00", now.Add(-time.Hour))
	mock.ExpectQuery("SELECT id, user_id, status, total_amount, created_at FROM orders WHERE user_id = \\$1 ORDER BY created_at DESC").
		WithArgs(int64(10)).WillReturnRows(orderRows)

	itemRows := sqlmock.NewRows([]string{"id", "order_id", "product_id", "product_name", "unit_price", "quantity"}).
		AddRow(int64(1), int64(1), int64(5), "t-shirt", "299.00", 1).
		AddRow(int64(2), int64(2), int64(5), "t-shirt", "299.00", 2)
	mock.ExpectQuery("SELECT id, order_id, product_id, product_name, unit_price, quantity FROM order_items").
		WillReturnRows(itemRows)

	orders, err := repo.GetOrdersByUserID(ctx, 10)
	assert.NoError(t, err)
	assert.Len(t, orders, 2)
	// новые заказы первыми
	assert.Equal(t, int64(2), orders[0].ID)
	assert.Len(t, orders[0].Items, 1)
	assert.Equal(t, 2, orders[0].Items[0].Quantity)
	assert.Len(t, orders[1].Items, 1)

	assert.NoError(t, mock.ExpectationsWereMet())
}

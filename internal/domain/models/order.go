package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Статус нового заказа. Других переходов статуса пока нет
const OrderStatusPending = "pending"

// Order представляет заказ пользователя
type Order struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"userId"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedAt   time.Time       `json:"createdAt"`
	Items       []*OrderItem    `json:"items"`
}

// OrderItem представляет позицию заказа.
// ProductName и UnitPrice — снимок данных товара на момент оформления:
// последующие изменения каталога не должны менять уже созданные заказы
type OrderItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"orderId"`
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
}

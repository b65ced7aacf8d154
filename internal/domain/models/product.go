package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product представляет товар каталога.
// Цена хранится как decimal, чтобы избежать накопления ошибок округления float64
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    *string         `json:"imageUrl,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

package domain

import (
	"time"
)

// CREATE TABLE public.products (
//     id               BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     product_id       TEXT NOT NULL UNIQUE,
//     sku_code         TEXT,
//     product_name     TEXT,
//     product_category TEXT,
//     brand            TEXT,
//     sell_price       NUMERIC,
//     competitor_price NUMERIC,
//     margin           NUMERIC,
//     min_shelf_days   INT,
//     expire_date      DATE,
//     is_seasonal      BOOLEAN,
//     created_at       TIMESTAMPTZ DEFAULT NOW()
// );

type Product struct {
	ID              uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID       string     `gorm:"column:product_id;uniqueIndex;not null" json:"product_id"`
	SKUCode         string     `gorm:"column:sku_code;type:text" json:"sku_code"`
	ProductName     string     `gorm:"column:product_name;type:text" json:"product_name"`
	ProductCategory string     `gorm:"column:product_category;type:text" json:"product_category"`
	Brand           string     `gorm:"column:brand;type:text" json:"brand"`
	SellPrice       float64    `gorm:"column:sell_price;type:numeric" json:"sell_price"`
	CompetitorPrice *float64   `gorm:"column:competitor_price;type:numeric" json:"competitor_price"`
	Margin          float64    `gorm:"column:margin;type:numeric" json:"margin"`
	MinShelfDays    int        `gorm:"column:min_shelf_days" json:"min_shelf_days"`
	ExpireDate      *time.Time `gorm:"column:expire_date" json:"expire_date"`
	IsSeasonal      bool       `gorm:"column:is_seasonal;default:false" json:"is_seasonal"`
	CreatedAt       time.Time  `gorm:"column:created_at" json:"created_at"`
}

func (Product) TableName() string {
	return "products"
}

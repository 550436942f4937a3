package domain

import "time"

// CREATE TABLE public.transactions (
//     id            BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     product_id    TEXT NOT NULL,
//     store_id      TEXT NOT NULL,
//     trx_date      DATE NOT NULL,
//     promo_price   NUMERIC,
//     purchase_cost NUMERIC,
//     discount      NUMERIC,
//     promo_margin  NUMERIC,
//     discount_type TEXT
// );

// Transaction is an append-only historical sale row, used only for model
// training. DiscountType is the treatment label that was active on the sale.
type Transaction struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID    string    `gorm:"column:product_id;index;not null" json:"product_id"`
	StoreID      string    `gorm:"column:store_id;index;not null" json:"store_id"`
	Date         time.Time `gorm:"column:trx_date;not null" json:"trx_date"`
	PromoPrice   float64   `gorm:"column:promo_price;type:numeric" json:"promo_price"`
	PurchaseCost float64   `gorm:"column:purchase_cost;type:numeric" json:"purchase_cost"`
	Discount     float64   `gorm:"column:discount;type:numeric" json:"discount"`
	PromoMargin  float64   `gorm:"column:promo_margin;type:numeric" json:"promo_margin"`
	DiscountType string    `gorm:"column:discount_type;type:text" json:"discount_type"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// Profit is the per-transaction profit the treatment models regress on.
func (t Transaction) Profit() float64 {
	return t.PromoPrice - t.PurchaseCost
}

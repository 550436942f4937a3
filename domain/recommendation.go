package domain

import "time"

// CREATE TABLE public.recommendations (
//     id                BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     product_id        TEXT NOT NULL,
//     sku_code          TEXT,
//     product_name      TEXT,
//     product_category  TEXT,
//     strategy_detail   TEXT NOT NULL,
//     discount_fraction NUMERIC NOT NULL,
//     start_date        DATE,
//     end_date          DATE,
//     avg_uplift_profit NUMERIC,
//     created_at        TIMESTAMPTZ DEFAULT NOW()
// );

// Recommendation is the final persisted output row: exactly one per candidate
// product, replaced wholesale on every successful pipeline run.
type Recommendation struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID        string    `gorm:"column:product_id;not null" json:"product_id"`
	SKUCode          string    `gorm:"column:sku_code;type:text" json:"sku_code"`
	ProductName      string    `gorm:"column:product_name;type:text" json:"product_name"`
	ProductCategory  string    `gorm:"column:product_category;type:text" json:"product_category"`
	StrategyDetail   string    `gorm:"column:strategy_detail;not null" json:"strategy_detail"`
	DiscountFraction float64   `gorm:"column:discount_fraction;type:numeric;not null" json:"discount_fraction"`
	StartDate        time.Time `gorm:"column:start_date" json:"start_date"`
	EndDate          time.Time `gorm:"column:end_date" json:"end_date"`
	AvgUpliftProfit  float64   `gorm:"column:avg_uplift_profit;type:numeric" json:"avg_uplift_profit"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Recommendation) TableName() string {
	return "recommendations"
}

// RecommendationSummary is the aggregate object served next to the ranked
// list and persisted on the pipeline run row.
type RecommendationSummary struct {
	TotalProducts        int            `json:"total_products"`
	StrategyDistribution map[string]int `json:"strategy_distribution"`
	AverageDiscount      float64        `json:"average_discount"`
	TotalUplift          float64        `json:"total_estimated_uplift"`
	AverageUplift        float64        `json:"average_uplift"`
	CategoryDistribution map[string]int `json:"category_distribution"`
}

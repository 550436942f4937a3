package features

import (
	"errors"
	"sort"

	"smartPromo/domain"
)

// ErrSchemaMismatch means inference-time feature columns no longer line up
// with the columns the treatment models were trained on. With correct
// zero-fill reindexing it can never happen; raising it indicates a contract
// violation, not bad user data.
var ErrSchemaMismatch = errors.New("feature schema mismatch between training and inference")

const (
	brandPrefix    = "brand_"
	categoryPrefix = "cat_"
	eventPrefix    = "event_"

	// Shelf horizon fallback when a product carries no shelf-days value.
	defaultShelfDays = 30
)

// numericColumns is the fixed leading block of every treatment feature
// vector. One-hot columns follow in lexicographic order.
var numericColumns = []string{
	"sell_price",
	"margin",
	"shelf_days",
	"days_since_production",
	"office_worker_ratio",
	"impulsive_ratio",
	"weight_grams",
	"price_per_gram",
}

// MasterRow is one transaction joined with its product and store attributes:
// the row format both treatment training and inference encode from.
type MasterRow struct {
	ProductID    string
	StoreID      string
	DiscountType string
	Profit       float64
	EventTag     string

	SellPrice      float64
	Margin         float64
	ShelfDays      float64
	OfficeRatio    float64
	ImpulsiveRatio float64
	WeightGrams    float64
	PricePerGram   float64

	Brand    string
	Category string
}

// BuildMasterRows left-joins transactions with product and store reference
// data, computes per-row profit and stamps the calendar event active on the
// transaction date. Unknown products or stores contribute zero-valued
// attributes rather than dropping the row.
func BuildMasterRows(
	transactions []domain.Transaction,
	products []domain.Product,
	stores []domain.Store,
	cal Calendar,
) []MasterRow {
	productsByID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		productsByID[p.ProductID] = p
	}
	storesByID := make(map[string]domain.Store, len(stores))
	for _, s := range stores {
		storesByID[s.StoreID] = s
	}

	rows := make([]MasterRow, 0, len(transactions))
	for _, trx := range transactions {
		row := MasterRow{
			ProductID:    trx.ProductID,
			StoreID:      trx.StoreID,
			DiscountType: trx.DiscountType,
			Profit:       trx.Profit(),
			EventTag:     cal.EventFor(trx.Date),
		}

		if p, ok := productsByID[trx.ProductID]; ok {
			applyProductAttrs(&row, p)
		}
		if s, ok := storesByID[trx.StoreID]; ok {
			applyStoreAttrs(&row, s)
		}

		rows = append(rows, row)
	}

	return rows
}

// PrepareRecommendationRows builds one inference row per (candidate, store)
// pair, stamped with the caller-supplied current event. Stores are ordered by
// store ID so downstream per-store aggregation is deterministic.
func PrepareRecommendationRows(
	candidates []domain.Product,
	stores []domain.Store,
	currentEvent string,
) []MasterRow {
	ordered := make([]domain.Store, len(stores))
	copy(ordered, stores)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].StoreID < ordered[j].StoreID })

	rows := make([]MasterRow, 0, len(candidates)*len(ordered))
	for _, p := range candidates {
		for _, s := range ordered {
			row := MasterRow{
				ProductID: p.ProductID,
				StoreID:   s.StoreID,
				EventTag:  currentEvent,
			}
			applyProductAttrs(&row, p)
			applyStoreAttrs(&row, s)
			rows = append(rows, row)
		}
	}

	return rows
}

func applyProductAttrs(row *MasterRow, p domain.Product) {
	row.SellPrice = p.SellPrice
	row.Margin = p.Margin
	row.Brand = p.Brand
	row.Category = p.ProductCategory

	row.ShelfDays = float64(p.MinShelfDays)
	if row.ShelfDays == 0 {
		row.ShelfDays = defaultShelfDays
	}

	row.WeightGrams = ParseWeightGrams(p.ProductName)
	if row.WeightGrams > 0 {
		row.PricePerGram = p.SellPrice / row.WeightGrams
	}
}

func applyStoreAttrs(row *MasterRow, s domain.Store) {
	row.OfficeRatio = ParseRatio(s.ConsumerJobs, "pekerja_kantoran")
	row.ImpulsiveRatio = ParseRatio(s.ConsumerHabits, "impulsif")
}

// Encoder turns MasterRows into fixed-width feature vectors. The column list
// is discovered once at training time and persisted with the models; at
// inference the same Encoder reindexes rows to that exact schema, zero-filling
// one-hot columns for unseen categories and ignoring categories that did not
// exist at training time.
type Encoder struct {
	columns []string
	index   map[string]int
}

// NewEncoder discovers the schema from training rows: the numeric block
// followed by every observed brand/category/event one-hot column in sorted
// order.
func NewEncoder(rows []MasterRow) *Encoder {
	oneHot := map[string]struct{}{}
	for _, row := range rows {
		if row.Brand != "" {
			oneHot[brandPrefix+row.Brand] = struct{}{}
		}
		if row.Category != "" {
			oneHot[categoryPrefix+row.Category] = struct{}{}
		}
		if row.EventTag != "" {
			oneHot[eventPrefix+row.EventTag] = struct{}{}
		}
	}

	oneHotCols := make([]string, 0, len(oneHot))
	for col := range oneHot {
		oneHotCols = append(oneHotCols, col)
	}
	sort.Strings(oneHotCols)

	columns := append(append([]string{}, numericColumns...), oneHotCols...)
	return newEncoderUnchecked(columns)
}

// EncoderFromColumns rebuilds an encoder from a persisted column list. The
// numeric block must match exactly; anything else is a schema contract
// violation.
func EncoderFromColumns(columns []string) (*Encoder, error) {
	if len(columns) < len(numericColumns) {
		return nil, ErrSchemaMismatch
	}
	for i, want := range numericColumns {
		if columns[i] != want {
			return nil, ErrSchemaMismatch
		}
	}

	return newEncoderUnchecked(columns), nil
}

func newEncoderUnchecked(columns []string) *Encoder {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		index[col] = i
	}
	return &Encoder{columns: columns, index: index}
}

// Columns returns a copy of the schema so callers can persist it.
func (e *Encoder) Columns() []string {
	out := make([]string, len(e.columns))
	copy(out, e.columns)
	return out
}

// Encode produces one feature vector aligned to the schema. One-hot columns
// for values unseen at training time stay zero.
func (e *Encoder) Encode(row MasterRow) []float64 {
	vec := make([]float64, len(e.columns))

	vec[0] = row.SellPrice
	vec[1] = row.Margin
	vec[2] = row.ShelfDays
	vec[3] = defaultDaysToExpiry - row.ShelfDays
	vec[4] = row.OfficeRatio
	vec[5] = row.ImpulsiveRatio
	vec[6] = row.WeightGrams
	vec[7] = row.PricePerGram

	if i, ok := e.index[brandPrefix+row.Brand]; ok {
		vec[i] = 1
	}
	if i, ok := e.index[categoryPrefix+row.Category]; ok {
		vec[i] = 1
	}
	if i, ok := e.index[eventPrefix+row.EventTag]; ok {
		vec[i] = 1
	}

	return vec
}

// Matrix encodes a batch of rows.
func (e *Encoder) Matrix(rows []MasterRow) [][]float64 {
	out := make([][]float64, len(rows))
	for i := range rows {
		out[i] = e.Encode(rows[i])
	}
	return out
}

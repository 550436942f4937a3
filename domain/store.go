package domain

import "time"

// CREATE TABLE public.stores (
//     id              BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     store_id        TEXT NOT NULL UNIQUE,
//     store_type      TEXT,
//     consumer_jobs   TEXT,
//     consumer_habits TEXT,
//     created_at      TIMESTAMPTZ DEFAULT NOW()
// );

// ConsumerJobs and ConsumerHabits are free-text descriptors carrying embedded
// ratios, e.g. "pekerja_kantoran: 0.45, mahasiswa: 0.30". The feature layer
// extracts the numbers; the fields stay raw text here.
type Store struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	StoreID        string    `gorm:"column:store_id;uniqueIndex;not null" json:"store_id"`
	StoreType      string    `gorm:"column:store_type;type:text" json:"store_type"`
	ConsumerJobs   string    `gorm:"column:consumer_jobs;type:text" json:"consumer_jobs"`
	ConsumerHabits string    `gorm:"column:consumer_habits;type:text" json:"consumer_habits"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Store) TableName() string {
	return "stores"
}

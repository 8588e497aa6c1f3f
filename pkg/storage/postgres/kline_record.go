package postgres

import (
	"time"

	"github.com/shopspring/decimal"
)

// KlineRecord is a closed candlestick as stored in the database. Prices and volumes
// keep the exchange's decimal strings exactly.
type KlineRecord struct {
	ID uint `gorm:"primaryKey"`

	// one row per series and start time
	Symbol   string    `gorm:"type:text;not null;index:idx_kline_symbol;index:idx_kline_series_start,unique"`
	Interval string    `gorm:"type:varchar(10);not null;index:idx_kline_series_start,unique"`
	Start    time.Time `gorm:"not null;index:idx_kline_series_start,unique"`
	End      time.Time `gorm:"not null"`
	Confirm  bool      `gorm:"not null"`

	Open  decimal.Decimal `gorm:"type:numeric;not null"`
	Close decimal.Decimal `gorm:"type:numeric;not null"`
	High  decimal.Decimal `gorm:"type:numeric;not null"`
	Low   decimal.Decimal `gorm:"type:numeric;not null"`

	Volume   decimal.Decimal `gorm:"type:numeric;not null"`
	Turnover decimal.Decimal `gorm:"type:numeric;not null"`

	Timestamp time.Time `gorm:"not null;index:idx_kline_timestamp"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (KlineRecord) TableName() string {
	return "kline_record"
}

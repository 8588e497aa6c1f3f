package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"streamcache/internal/bybit/memorystore"
	"streamcache/pkg/bybit"

	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// ErrDuplicateKline is returned by InsertKline when the kline is already stored.
var ErrDuplicateKline = errors.New("duplicate kline skipped")

func (p *PostgresClient) InsertKline(ctx context.Context, record *KlineRecord) error {
	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "symbol"},
			{Name: "interval"},
			{Name: "start"},
		},
		DoNothing: true,
	}).Create(record)

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return fmt.Errorf(
			"%w: symbol=%s interval=%s start=%s",
			ErrDuplicateKline,
			record.Symbol,
			record.Interval,
			record.Start.Format(time.RFC3339),
		)
	}

	return nil
}

// SaveKline converts a cached kline and inserts it. Duplicates are not an error.
func (p *PostgresClient) SaveKline(ctx context.Context, symbol string, k memorystore.Kline) error {
	record, err := ToKlineRecord(symbol, k)
	if err != nil {
		return fmt.Errorf("convert kline %s/%d: %w", symbol, k.Start, err)
	}
	if err := p.InsertKline(ctx, record); err != nil && !errors.Is(err, ErrDuplicateKline) {
		return err
	}
	return nil
}

func (p *PostgresClient) GetKline(ctx context.Context, symbol, interval string, start time.Time) (*KlineRecord, error) {
	var kline KlineRecord
	err := p.DB.WithContext(ctx).
		Where("symbol = ? AND interval = ? AND start = ?", symbol, interval, start).
		First(&kline).Error

	if err != nil {
		return nil, err
	}
	return &kline, nil
}

func (p *PostgresClient) UpdateKlineConfirm(ctx context.Context, id uint, confirm bool) error {
	return p.DB.WithContext(ctx).
		Model(&KlineRecord{}).
		Where("id = ?", id).
		Update("confirm", confirm).Error
}

func (p *PostgresClient) DeleteOldKlines(ctx context.Context, before time.Time) error {
	return p.DB.WithContext(ctx).
		Where("start < ?", before).
		Delete(&KlineRecord{}).Error
}

// ToKlineRecord converts a Kline and symbol into a KlineRecord for DB insertion.
func ToKlineRecord(symbol string, k memorystore.Kline) (*KlineRecord, error) {
	interval, err := bybit.ParseKlineInterval(k.Interval)
	if err != nil {
		return nil, err
	}

	record := &KlineRecord{
		Symbol:    symbol,
		Interval:  interval.DBValue,
		Start:     time.UnixMilli(k.Start),
		End:       time.UnixMilli(k.End),
		Confirm:   k.Confirm,
		Timestamp: time.UnixMilli(k.Timestamp),
	}

	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"open", k.Open, &record.Open},
		{"close", k.Close, &record.Close},
		{"high", k.High, &record.High},
		{"low", k.Low, &record.Low},
		{"volume", k.Volume, &record.Volume},
		{"turnover", k.Turnover, &record.Turnover},
	}
	for _, f := range fields {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = d
	}

	return record, nil
}

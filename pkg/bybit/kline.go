package bybit

import (
	"fmt"
	"strconv"
	"time"

	"streamcache/internal/bybit/memorystore"

	"github.com/shopspring/decimal"
)

// ParseKlineList converts Bybit REST API kline rows to []Kline.
// Rows come as [start, open, high, low, close, volume, turnover], newest first; the
// result is oldest first. Invalid rows are skipped. REST klines are always closed,
// so Confirm is set.
func ParseKlineList(interval string, raw [][]string) ([]memorystore.Kline, error) {
	meta, err := ParseKlineInterval(interval)
	if err != nil {
		return nil, err
	}

	out := make([]memorystore.Kline, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		row := raw[i]
		if len(row) < 7 {
			continue // skip incomplete row
		}

		start, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			continue
		}
		values, ok := normalizeDecimals(row[1:7])
		if !ok {
			continue
		}

		out = append(out, memorystore.Kline{
			Start:     start,
			End:       time.UnixMilli(start).Add(meta.Duration()).UnixMilli() - 1,
			Interval:  interval,
			Open:      values[0],
			High:      values[1],
			Low:       values[2],
			Close:     values[3],
			Volume:    values[4],
			Turnover:  values[5],
			Confirm:   true,
			Timestamp: time.Now().UnixMilli(), // Time of ingestion
		})
	}
	return out, nil
}

// normalizeDecimals validates numeric strings and returns their canonical form.
func normalizeDecimals(in []string) ([]string, bool) {
	out := make([]string, len(in))
	for i, s := range in {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, false
		}
		out[i] = d.String()
	}
	return out, true
}

// parseDecimal parses a numeric field, naming it in the error.
func parseDecimal(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return d, nil
}

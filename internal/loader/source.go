package loader

import (
	"errors"
	"io"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/livetrade/trade-ingest/internal/trade"
)

// tradeSource adapts a trade.Reader to pgx.CopyFromSource.
type tradeSource struct {
	r    *trade.Reader
	cur  trade.Trade
	rows int64
	err  error
}

func newTradeSource(r *trade.Reader) *tradeSource {
	return &tradeSource{r: r}
}

func (s *tradeSource) Next() bool {
	if s.err != nil {
		return false
	}
	t, err := s.r.Read()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			s.err = err
		}
		return false
	}
	s.cur = t
	s.rows++
	return true
}

func (s *tradeSource) Values() ([]any, error) {
	t := s.cur
	return []any{
		t.Symbol,
		t.Timestamp,
		numeric(t.Price),
		t.Quantity,
		int16(t.Side),
		t.Exchange,
	}, nil
}

func (s *tradeSource) Err() error {
	return s.err
}

// numeric converts a decimal without going through float64.
func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{
		Int:   d.Coefficient(),
		Exp:   d.Exponent(),
		Valid: true,
	}
}

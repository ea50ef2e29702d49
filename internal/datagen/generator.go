package datagen

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/livetrade/trade-ingest/internal/logging"
	"github.com/livetrade/trade-ingest/internal/trade"
)

// TimestampMode controls how row offsets map to trade timestamps.
type TimestampMode string

const (
	// TimestampWrap offsets row i by i mod 86400 seconds, so timestamps
	// repeat every day's worth of rows.
	TimestampWrap TimestampMode = "wrap"

	// TimestampMonotonic offsets row i by i seconds.
	TimestampMonotonic TimestampMode = "monotonic"
)

const (
	secondsPerDay = 24 * 60 * 60

	// maxWindowDays is the largest number of days the window start is
	// moved back from now.
	maxWindowDays = 6

	// cancelCheckInterval is how often (in rows) generation checks for
	// cancellation.
	cancelCheckInterval = 4096
)

// GeneratorConfig configures trade generation.
type GeneratorConfig struct {
	// Rows is the number of trades to generate.
	Rows int64

	// TimestampMode selects wrap or monotonic timestamps.
	TimestampMode TimestampMode

	// ProgressInterval is how often to log progress (in rows). Zero disables it.
	ProgressInterval int64

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// DefaultGeneratorConfig returns default generation configuration.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Rows:             20000,
		TimestampMode:    TimestampWrap,
		ProgressInterval: 100000,
	}
}

// Result summarizes a generation run.
type Result struct {
	Rows        int64
	Bytes       int64
	WindowStart time.Time
	Elapsed     time.Duration
}

// Generator produces synthetic trades.
type Generator struct {
	faker *Faker
	cfg   GeneratorConfig
}

// NewGenerator creates a new trade generator.
func NewGenerator(faker *Faker, cfg GeneratorConfig) *Generator {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.TimestampMode == "" {
		cfg.TimestampMode = TimestampWrap
	}
	return &Generator{
		faker: faker,
		cfg:   cfg,
	}
}

// WindowStart picks the first timestamp of a run: the current UTC time,
// truncated to the second, moved back a random number of whole days.
func (g *Generator) WindowStart() time.Time {
	now := g.cfg.Now().UTC().Truncate(time.Second)
	days := g.faker.Int(0, maxWindowDays)
	return now.AddDate(0, 0, -days)
}

// Timestamp returns the timestamp of row i for a window starting at start.
func (g *Generator) Timestamp(start time.Time, i int64) time.Time {
	offset := i
	if g.cfg.TimestampMode == TimestampWrap {
		offset = i % secondsPerDay
	}
	return start.Add(time.Duration(offset) * time.Second)
}

// Trade generates row i of a window starting at start.
func (g *Generator) Trade(start time.Time, i int64) trade.Trade {
	return trade.Trade{
		Symbol:    Choose(g.faker, trade.Symbols),
		Timestamp: g.Timestamp(start, i),
		Price:     g.faker.Decimal(trade.MinPrice, trade.MaxPrice, trade.PriceScale),
		Quantity:  Choose(g.faker, trade.LotSizes),
		Side:      trade.Side(g.faker.Int(int(trade.Buy), int(trade.Sell))),
		Exchange:  Choose(g.faker, trade.Exchanges),
	}
}

// Generate writes the configured number of trades to w, one at a time.
func (g *Generator) Generate(ctx context.Context, w io.Writer) (Result, error) {
	started := time.Now()
	start := g.WindowStart()

	out := trade.NewWriter(w)
	progress := NewProgressReporter(trade.TableName, g.cfg.Rows, g.cfg.ProgressInterval)

	for i := int64(0); i < g.cfg.Rows; i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}
		if err := out.Write(g.Trade(start, i)); err != nil {
			return Result{}, err
		}
		progress.Update(1)
	}

	if err := out.Flush(); err != nil {
		return Result{}, fmt.Errorf("failed to flush trades: %w", err)
	}
	progress.Done()

	return Result{
		Rows:        out.Rows(),
		Bytes:       out.Bytes(),
		WindowStart: start,
		Elapsed:     time.Since(started),
	}, nil
}

// GenerateFile writes trades to path, replacing any existing file.
func (g *Generator) GenerateFile(ctx context.Context, path string) (Result, error) {
	f, err := os.Create(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create %s: %w", path, err)
	}

	res, err := g.Generate(ctx, f)
	if err != nil {
		_ = f.Close()
		return Result{}, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return Result{}, fmt.Errorf("failed to close %s: %w", path, err)
	}

	logging.Debug().
		Str("path", path).
		Str("size", FormatSize(res.Bytes)).
		Time("window_start", res.WindowStart).
		Msg("Wrote trade file")

	return res, nil
}

// ProgressReporter tracks and reports data generation progress.
type ProgressReporter struct {
	tableName        string
	totalRows        int64
	currentRow       int64
	progressInterval int64
}

// NewProgressReporter creates a new progress reporter.
func NewProgressReporter(tableName string, totalRows int64, interval int64) *ProgressReporter {
	return &ProgressReporter{
		tableName:        tableName,
		totalRows:        totalRows,
		progressInterval: interval,
	}
}

// Update updates the progress and logs if necessary.
func (p *ProgressReporter) Update(rowsInserted int64) {
	oldRow := p.currentRow
	p.currentRow += rowsInserted

	if p.progressInterval <= 0 || p.totalRows <= 0 {
		return
	}

	// Check if we crossed a progress interval
	if p.currentRow/p.progressInterval > oldRow/p.progressInterval {
		pct := float64(p.currentRow) / float64(p.totalRows) * 100
		logging.Info().
			Str("table", p.tableName).
			Int64("rows", p.currentRow).
			Int64("total", p.totalRows).
			Float64("percent", pct).
			Msg("Generating data")
	}
}

// Rows returns the number of rows reported so far.
func (p *ProgressReporter) Rows() int64 {
	return p.currentRow
}

// Done logs completion.
func (p *ProgressReporter) Done() {
	logging.Debug().
		Str("table", p.tableName).
		Int64("rows", p.currentRow).
		Msg("Generation complete")
}

// FormatSize formats a byte count as a human-readable string.
func FormatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.2f TB", float64(bytes)/float64(TB))
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

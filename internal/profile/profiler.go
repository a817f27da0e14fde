// Package profile computes per-column descriptive statistics over a table
// snapshot. Column-level failures degrade to flags on that column; a
// profiling pass always completes for the rest of the table.
package profile

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dataplor/dataplor-cli/internal/frame"
	"github.com/dataplor/dataplor-cli/internal/model"
	"github.com/dataplor/dataplor-cli/internal/schema"
)

// OutlierCounter counts IQR outliers for a numeric column against the
// backing data source. Optional; when nil or failing, the profiler falls
// back to the in-memory computation.
type OutlierCounter func(ctx context.Context, table, column string) (int, error)

// Profiler computes snapshot profiles.
type Profiler struct {
	schemaCfg schema.Config
	outliers  OutlierCounter
}

// New creates a Profiler. counter may be nil.
func New(schemaCfg schema.Config, counter OutlierCounter) *Profiler {
	return &Profiler{schemaCfg: schemaCfg, outliers: counter}
}

// Profile computes the full profile of a snapshot.
func (p *Profiler) Profile(ctx context.Context, snap *frame.Snapshot, hints schema.Hints) (*model.Profile, error) {
	rows := snap.NumRows()
	cols := snap.NumCols()

	prof := &model.Profile{
		Table:       snap.Table,
		RowCount:    rows,
		ColumnCount: cols,
		Columns:     make(map[string]model.ColumnProfile, cols),
		GeneratedAt: time.Now().UTC(),
	}
	if rows == 0 || cols == 0 {
		return prof, nil
	}

	dateCols := make(map[string]bool, len(hints.DateColumns))
	for _, c := range hints.DateColumns {
		dateCols[c] = true
	}

	// Columns are independent; profile them in parallel. Each goroutine
	// writes its own slot.
	results := make([]model.ColumnProfile, cols)
	g, gctx := errgroup.WithContext(ctx)
	for i, col := range snap.Columns {
		g.Go(func() error {
			results[i] = p.profileColumn(gctx, snap.Table, col, rows, dateCols[col.Name])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	totalMissing := 0
	for _, cp := range results {
		prof.Columns[cp.Name] = cp
		totalMissing += cp.MissingCount
	}
	prof.OverallMissingPercent = frame.Round2(float64(totalMissing) / float64(rows*cols) * 100)

	dups := snap.DuplicateIndices()
	prof.Duplicates = model.DuplicateStats{
		Count:   len(dups),
		Percent: frame.Round2(float64(len(dups)) / float64(rows) * 100),
	}

	prof.Coordinates = coordinateStats(snap, hints)

	return prof, nil
}

func (p *Profiler) profileColumn(ctx context.Context, table string, col *frame.Column, rows int, dateLike bool) model.ColumnProfile {
	missing := col.MissingCount()
	cp := model.ColumnProfile{
		Name:           col.Name,
		Dtype:          string(col.Kind()),
		MissingCount:   missing,
		MissingPercent: frame.Round2(float64(missing) / float64(rows) * 100),
		DistinctCount:  col.DistinctCount(),
	}

	kind := col.Kind()
	if kind == frame.KindInt || kind == frame.KindFloat {
		vals := col.Floats()
		if len(vals) > 0 {
			mn, mx, sum := vals[0], vals[0], 0.0
			for _, v := range vals {
				if v < mn {
					mn = v
				}
				if v > mx {
					mx = v
				}
				sum += v
			}
			mean := sum / float64(len(vals))
			cp.Min, cp.Max, cp.Mean = &mn, &mx, &mean
		}
		if !p.schemaCfg.IsIDLike(col.Name) {
			cp.OutlierCount = p.countOutliers(ctx, table, col)
		}
	}

	if dateLike || kind == frame.KindTime {
		profileDates(col, &cp)
	}

	return cp
}

// countOutliers tries the data source first, then falls back to the
// in-memory IQR computation.
func (p *Profiler) countOutliers(ctx context.Context, table string, col *frame.Column) int {
	if p.outliers != nil && table != "" {
		n, err := p.outliers(ctx, table, col.Name)
		if err == nil {
			return n
		}
		zap.L().Debug("profile: source outlier count failed, using in-memory fallback",
			zap.String("table", table),
			zap.String("column", col.Name),
			zap.Error(err),
		)
	}

	vals := col.Floats()
	q1, ok1 := frame.Quantile(vals, 0.25)
	q3, ok3 := frame.Quantile(vals, 0.75)
	if !ok1 || !ok3 {
		return 0
	}
	iqr := q3 - q1
	lower, upper := q1-1.5*iqr, q3+1.5*iqr
	n := 0
	for _, v := range vals {
		if v < lower || v > upper {
			n++
		}
	}
	return n
}

func coordinateStats(snap *frame.Snapshot, hints schema.Hints) *model.CoordinateStats {
	latName := hints.Column(schema.RoleLatitude)
	lonName := hints.Column(schema.RoleLongitude)
	if latName == "" || lonName == "" {
		return nil
	}
	lat, ok1 := snap.Column(latName)
	lon, ok2 := snap.Column(lonName)
	if !ok1 || !ok2 {
		return nil
	}

	rows := snap.NumRows()
	stats := &model.CoordinateStats{LatitudeColumn: latName, LongitudeColumn: lonName}
	for i := 0; i < rows; i++ {
		lv, lok := frame.Float64(lat.Values[i])
		gv, gok := frame.Float64(lon.Values[i])
		switch {
		case lat.Values[i] == nil || lon.Values[i] == nil:
			stats.NullCount++
		case lok && gok && lv >= -90 && lv <= 90 && gv >= -180 && gv <= 180:
			stats.ValidCount++
		default:
			// Out of range, or present but non-numeric.
			stats.InvalidCount++
		}
	}
	stats.ValidPercent = frame.Round2(float64(stats.ValidCount) / float64(rows) * 100)
	stats.InvalidPercent = frame.Round2(float64(stats.InvalidCount) / float64(rows) * 100)
	stats.NullPercent = frame.Round2(float64(stats.NullCount) / float64(rows) * 100)
	return stats
}

// dateLayouts are attempted in order: ISO, US, EU, then permissive
// fallbacks. A layout wins when it parses more than half of the
// non-missing values.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
}

var permissiveLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"Jan 2, 2006",
}

func profileDates(col *frame.Column, cp *model.ColumnProfile) {
	var parsed []time.Time
	nonMissing := 0
	for _, v := range col.Values {
		if v == nil {
			continue
		}
		nonMissing++
		if t, ok := v.(time.Time); ok {
			parsed = append(parsed, t)
		}
	}

	if nonMissing == 0 {
		return
	}

	// String-typed date columns: try each layout, accept the first that
	// parses a majority.
	if len(parsed) == 0 {
		parsed = parseDateStrings(col, nonMissing)
		if parsed == nil {
			cp.FormatIssues = true
			return
		}
	}

	sort.Slice(parsed, func(i, j int) bool { return parsed[i].Before(parsed[j]) })
	minD, maxD := parsed[0], parsed[len(parsed)-1]
	cp.MinDate = minD.Format("2006-01-02")
	cp.MaxDate = maxD.Format("2006-01-02")
	days := int(maxD.Sub(minD).Hours() / 24)
	cp.DateRangeDays = &days
}

func parseDateStrings(col *frame.Column, nonMissing int) []time.Time {
	for _, layout := range dateLayouts {
		if ts := parseAll(col, layout); len(ts)*2 > nonMissing {
			return ts
		}
	}
	// Permissive pass: accept any known layout per value.
	var ts []time.Time
	for _, v := range col.Values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		for _, layout := range append(dateLayouts, permissiveLayouts...) {
			if t, err := time.Parse(layout, s); err == nil {
				ts = append(ts, t)
				break
			}
		}
	}
	if len(ts) == 0 {
		return nil
	}
	return ts
}

func parseAll(col *frame.Column, layout string) []time.Time {
	var ts []time.Time
	for _, v := range col.Values {
		if s, ok := v.(string); ok {
			if t, err := time.Parse(layout, s); err == nil {
				ts = append(ts, t)
			}
		}
	}
	return ts
}

// Package cpg is the domain query library: parameterized analyses over a
// location table in the data source, covering distribution planning,
// market analysis, territory management and CPG-specific data quality.
// Queries run against the source directly rather than a loaded snapshot,
// since they aggregate whole tables.
package cpg

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/dataplor/dataplor-cli/internal/config"
	"github.com/dataplor/dataplor-cli/internal/frame"
	"github.com/dataplor/dataplor-cli/internal/schema"
)

// Analysis names accepted by Run.
const (
	DistributionPoints = "distribution-points"
	DeliveryWindows    = "delivery-windows"
	Chains             = "chains"
	Gaps               = "gaps"
	Segments           = "segments"
	Density            = "density"
	Engagement         = "engagement"
	Territory          = "territory"
	Clusters           = "clusters"
	Completeness       = "completeness"
	ChainQuality       = "chain-quality"
)

// Names lists all analyses in presentation order.
func Names() []string {
	return []string{
		DistributionPoints, DeliveryWindows, Chains, Gaps,
		Segments, Density, Engagement,
		Territory, Clusters,
		Completeness, ChainQuality,
	}
}

// Params carries per-analysis tuning. Zero values fall back to the
// configured defaults.
type Params struct {
	MinConfidence  float64 `json:"min_confidence,omitempty"`
	City           string  `json:"city,omitempty"`
	Day            string  `json:"day,omitempty"`
	MinLocations   int     `json:"min_locations,omitempty"`
	TopN           int     `json:"top_n,omitempty"`
	MinClusterSize int     `json:"min_cluster_size,omitempty"`
}

// weekdays in delivery-window order.
var weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// retail categories the distribution analyses target.
const (
	categoryRetail  = "retail"
	categoryGrocery = "convenience_and_grocery_stores"
	categoryDining  = "dining"
)

// Analyzer composes and runs the domain queries against a source.
type Analyzer struct {
	src       Querier
	cfg       config.CPGConfig
	schemaCfg schema.Config
}

// Querier is the subset of the source connector the analyzer needs.
type Querier interface {
	Columns(ctx context.Context, table string) ([]string, error)
	Query(ctx context.Context, sql string, args ...any) (*frame.Snapshot, error)
	Dialect() string
}

// New creates an Analyzer over a data source.
func New(src Querier, cfg config.CPGConfig, schemaCfg schema.Config) *Analyzer {
	return &Analyzer{src: src, cfg: cfg, schemaCfg: schemaCfg}
}

// Run executes one analysis by name and returns its result table.
func (a *Analyzer) Run(ctx context.Context, analysis, table string, p Params) (*frame.Snapshot, error) {
	cols, err := a.src.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	t := a.newTarget(table, cols)

	var snap *frame.Snapshot
	switch analysis {
	case DistributionPoints:
		snap, err = a.distributionPoints(ctx, t, p)
	case DeliveryWindows:
		snap, err = a.deliveryWindows(ctx, t, p)
	case Chains:
		snap, err = a.chainTargets(ctx, t, p)
	case Gaps:
		snap, err = a.distributionGaps(ctx, t, p)
	case Segments:
		snap, err = a.retailSegments(ctx, t)
	case Density:
		snap, err = a.competitiveDensity(ctx, t, p)
	case Engagement:
		snap, err = a.customerEngagement(ctx, t, p)
	case Territory:
		snap, err = a.territoryCoverage(ctx, t)
	case Clusters:
		snap, err = a.geographicClusters(ctx, t, p)
	case Completeness:
		snap, err = a.criticalCompleteness(ctx, t)
	case ChainQuality:
		snap, err = a.chainDataQuality(ctx, t, p)
	default:
		return nil, eris.Errorf("cpg: unknown analysis %q (valid: %s)", analysis, strings.Join(Names(), ", "))
	}
	if err != nil {
		return nil, err
	}
	snap.Table = analysis
	return snap, nil
}

// target binds a table to its resolved schema and SQL dialect.
type target struct {
	table   string
	columns map[string]bool
	hints   schema.Hints
	dialect string
}

func (a *Analyzer) newTarget(table string, cols []string) *target {
	set := make(map[string]bool, len(cols))
	for _, c := range cols {
		set[strings.ToLower(c)] = true
	}
	return &target{
		table:   table,
		columns: set,
		hints:   schema.Resolve(cols, a.schemaCfg),
		dialect: a.src.Dialect(),
	}
}

// role returns the quoted resolved column for a role, erroring when the
// table has none. Analyses that cannot run without the role use this.
func (t *target) role(r schema.Role) (string, error) {
	if c := t.hints.Column(r); c != "" {
		return qident(c), nil
	}
	return "", eris.Errorf("cpg: table %s has no %s column", t.table, r)
}

// roleOrNull substitutes a NULL literal when the role is absent, for
// optional select/aggregate positions.
func (t *target) roleOrNull(r schema.Role) string {
	if c := t.hints.Column(r); c != "" {
		return qident(c)
	}
	return "NULL"
}

// colOrNull handles dataset columns beyond the role table (engagement
// metrics, weekday hours) by literal lowercase name.
func (t *target) colOrNull(name string) string {
	if t.columns[name] {
		return qident(name)
	}
	return "NULL"
}

func (t *target) hasColumn(name string) bool { return t.columns[name] }

// retailFilter builds the shared WHERE clause targeting open retail and
// grocery locations. Extra categories widen the IN list. Status and
// confidence filters drop out when the table lacks those columns.
func (t *target) retailFilter(args *argList, extraCategories ...string) (string, error) {
	cat, err := t.role(schema.RoleCategory)
	if err != nil {
		return "", err
	}
	cats := append([]string{categoryRetail, categoryGrocery}, extraCategories...)
	ph := make([]string, len(cats))
	for i, c := range cats {
		ph[i] = args.add(c)
	}
	where := fmt.Sprintf("%s IN (%s)", cat, strings.Join(ph, ", "))

	if status := t.hints.Column(schema.RoleStatus); status != "" {
		where += fmt.Sprintf(" AND %s = %s", qident(status), args.add("open"))
	}
	return where, nil
}

// argList accumulates query arguments and emits numbered placeholders,
// $N for postgres and ?N for sqlite. Numbered placeholders keep the
// binding stable when a builder interpolates them out of textual order
// or reuses one argument in several positions.
type argList struct {
	dialect string
	args    []any
}

func (l *argList) add(v any) string {
	l.args = append(l.args, v)
	if l.dialect == "postgres" {
		return fmt.Sprintf("$%d", len(l.args))
	}
	return fmt.Sprintf("?%d", len(l.args))
}

// stringAgg renders the distinct string aggregate for the dialect.
// SQLite's GROUP_CONCAT cannot take a separator together with DISTINCT,
// so it keeps the default comma there.
func stringAgg(dialect, expr string) string {
	if dialect == "postgres" {
		return fmt.Sprintf("STRING_AGG(DISTINCT %s, ', ')", expr)
	}
	return fmt.Sprintf("GROUP_CONCAT(DISTINCT %s)", expr)
}

// hourOf extracts the hour from a HH:MM:SS text column.
func hourOf(dialect, expr string) string {
	if dialect == "postgres" {
		return fmt.Sprintf("EXTRACT(HOUR FROM CAST(%s AS time))", expr)
	}
	return fmt.Sprintf("CAST(strftime('%%H', %s) AS INTEGER)", expr)
}

func qident(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (a *Analyzer) distributionPoints(ctx context.Context, t *target, p Params) (*frame.Snapshot, error) {
	args := &argList{dialect: t.dialect}
	where, err := a.pointsFilter(t, args, p)
	if err != nil {
		return nil, err
	}

	sel := []string{}
	for _, r := range []schema.Role{
		schema.RoleName, schema.RoleChainName, schema.RoleCategory, schema.RoleSubCategory,
		schema.RoleAddress, schema.RoleCity, schema.RoleState, schema.RolePostalCode,
		schema.RoleLatitude, schema.RoleLongitude, schema.RoleStatus, schema.RoleConfidence,
	} {
		if c := t.hints.Column(r); c != "" {
			sel = append(sel, qident(c))
		}
	}
	if len(sel) == 0 {
		return nil, eris.Errorf("cpg: table %s has no recognizable location columns", t.table)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(sel, ", "), qident(t.table), where)
	if city := t.hints.Column(schema.RoleCity); city != "" {
		query += fmt.Sprintf(" ORDER BY %s", qident(city))
		if conf := t.hints.Column(schema.RoleConfidence); conf != "" {
			query += fmt.Sprintf(", %s DESC", qident(conf))
		}
	}
	return a.src.Query(ctx, query, args.args...)
}

func (a *Analyzer) pointsFilter(t *target, args *argList, p Params) (string, error) {
	where, err := t.retailFilter(args)
	if err != nil {
		return "", err
	}
	if addr := t.hints.Column(schema.RoleAddress); addr != "" {
		where += fmt.Sprintf(" AND %s IS NOT NULL", qident(addr))
	}
	if conf := t.hints.Column(schema.RoleConfidence); conf != "" && p.MinConfidence > 0 {
		where += fmt.Sprintf(" AND %s >= %s", qident(conf), args.add(p.MinConfidence))
	}
	if city := t.hints.Column(schema.RoleCity); city != "" && p.City != "" {
		where += fmt.Sprintf(" AND %s = %s", qident(city), args.add(p.City))
	}
	return where, nil
}

func (a *Analyzer) deliveryWindows(ctx context.Context, t *target, p Params) (*frame.Snapshot, error) {
	day := strings.ToLower(p.Day)
	if day == "" {
		day = weekdays[0]
	}
	valid := false
	for _, d := range weekdays {
		if d == day {
			valid = true
			break
		}
	}
	if !valid {
		return nil, eris.Errorf("cpg: invalid day %q (valid: %s)", p.Day, strings.Join(weekdays, ", "))
	}

	args := &argList{dialect: t.dialect}
	where, err := t.retailFilter(args)
	if err != nil {
		return nil, err
	}

	openCol, closeCol := day+"_open", day+"_close"
	openExpr := args.add(a.cfg.DefaultOpenTime)
	closeExpr := args.add(a.cfg.DefaultCloseTime)
	windowExpr := fmt.Sprintf("%d", a.cfg.DefaultWindowHours)
	if t.hasColumn(openCol) && t.hasColumn(closeCol) {
		openExpr = fmt.Sprintf("COALESCE(%s, %s)", qident(openCol), openExpr)
		closeExpr = fmt.Sprintf("COALESCE(%s, %s)", qident(closeCol), closeExpr)
		windowExpr = fmt.Sprintf(
			"CASE WHEN %[1]s IS NOT NULL AND %[2]s IS NOT NULL THEN %[3]s - %[4]s ELSE %[5]d END",
			qident(openCol), qident(closeCol),
			hourOf(t.dialect, qident(closeCol)), hourOf(t.dialect, qident(openCol)),
			a.cfg.DefaultWindowHours,
		)
	}

	query := fmt.Sprintf(`SELECT %s, %s, %s, %s,
	%s AS open_time, %s AS close_time, %s AS window_hours
FROM %s WHERE %s ORDER BY window_hours DESC`,
		t.roleOrNull(schema.RoleName), t.roleOrNull(schema.RoleAddress),
		t.roleOrNull(schema.RoleCity), t.roleOrNull(schema.RoleCategory),
		openExpr, closeExpr, windowExpr,
		qident(t.table), where,
	)
	return a.src.Query(ctx, query, args.args...)
}

func (a *Analyzer) chainTargets(ctx context.Context, t *target, p Params) (*frame.Snapshot, error) {
	chainName, err := t.role(schema.RoleChainName)
	if err != nil {
		return nil, err
	}
	args := &argList{dialect: t.dialect}
	where, err := t.retailFilter(args)
	if err != nil {
		return nil, err
	}
	if chainID := t.hints.Column(schema.RoleChainID); chainID != "" {
		where += fmt.Sprintf(" AND %s IS NOT NULL AND %s != ''", qident(chainID), qident(chainID))
	} else {
		where += fmt.Sprintf(" AND %s IS NOT NULL AND %s != ''", chainName, chainName)
	}

	minLoc := p.MinLocations
	if minLoc <= 0 {
		minLoc = a.cfg.MinChainLocations
	}
	conf := t.roleOrNull(schema.RoleConfidence)

	query := fmt.Sprintf(`SELECT %s AS chain_name,
	COUNT(*) AS location_count,
	%s AS cities,
	MIN(%s) AS min_confidence,
	MAX(%s) AS max_confidence,
	AVG(%s) AS avg_confidence
FROM %s WHERE %s
GROUP BY %s
HAVING COUNT(*) >= %s
ORDER BY location_count DESC`,
		chainName,
		stringAgg(t.dialect, t.roleOrNull(schema.RoleCity)),
		conf, conf, conf,
		qident(t.table), where,
		chainName,
		args.add(minLoc),
	)
	return a.src.Query(ctx, query, args.args...)
}

func (a *Analyzer) distributionGaps(ctx context.Context, t *target, p Params) (*frame.Snapshot, error) {
	city, err := t.role(schema.RoleCity)
	if err != nil {
		return nil, err
	}
	cat, err := t.role(schema.RoleCategory)
	if err != nil {
		return nil, err
	}

	args := &argList{dialect: t.dialect}
	where := "1=1"
	if status := t.hints.Column(schema.RoleStatus); status != "" {
		where = fmt.Sprintf("%s = %s", qident(status), args.add("open"))
	}
	retailPh := args.add(categoryRetail)
	groceryPh := args.add(categoryGrocery)
	minLoc := p.MinLocations
	if minLoc <= 0 {
		minLoc = a.cfg.GapMinLocations
	}

	query := fmt.Sprintf(`SELECT %[1]s AS city,
	COUNT(*) AS total_locations,
	SUM(CASE WHEN %[2]s = %[3]s THEN 1 ELSE 0 END) AS retail_locations,
	SUM(CASE WHEN %[2]s = %[4]s THEN 1 ELSE 0 END) AS grocery_locations,
	SUM(CASE WHEN %[2]s IN (%[3]s, %[4]s) THEN 1 ELSE 0 END) * 100.0 / COUNT(*) AS retail_percentage
FROM %[5]s WHERE %[6]s
GROUP BY %[1]s
HAVING COUNT(*) >= %[7]s
ORDER BY retail_percentage`,
		city, cat, retailPh, groceryPh,
		qident(t.table), where,
		args.add(minLoc),
	)
	return a.src.Query(ctx, query, args.args...)
}

func (a *Analyzer) retailSegments(ctx context.Context, t *target) (*frame.Snapshot, error) {
	cat, err := t.role(schema.RoleCategory)
	if err != nil {
		return nil, err
	}
	args := &argList{dialect: t.dialect}
	where, err := t.retailFilter(args)
	if err != nil {
		return nil, err
	}

	price := t.colOrNull("price_level")
	query := fmt.Sprintf(`SELECT %[1]s AS main_category, %[2]s AS sub_category,
	COUNT(*) AS location_count,
	ROUND(AVG(%[3]s), 1) AS avg_popularity,
	ROUND(AVG(%[4]s), 2) AS avg_sentiment,
	COUNT(CASE WHEN %[5]s IS NOT NULL THEN 1 END) AS has_price_data,
	%[6]s AS price_levels
FROM %[7]s WHERE %[8]s
GROUP BY %[1]s, %[2]s
ORDER BY location_count DESC`,
		cat, t.roleOrNull(schema.RoleSubCategory),
		t.colOrNull("popularity_score"), t.colOrNull("sentiment_score"),
		price, stringAgg(t.dialect, price),
		qident(t.table), where,
	)
	return a.src.Query(ctx, query, args.args...)
}

func (a *Analyzer) competitiveDensity(ctx context.Context, t *target, p Params) (*frame.Snapshot, error) {
	postal, err := t.role(schema.RolePostalCode)
	if err != nil {
		return nil, err
	}
	args := &argList{dialect: t.dialect}
	where, err := t.retailFilter(args)
	if err != nil {
		return nil, err
	}
	where += fmt.Sprintf(" AND %s IS NOT NULL", postal)

	topN := p.TopN
	if topN <= 0 {
		topN = a.cfg.DensityTopN
	}
	cat := t.roleOrNull(schema.RoleCategory)
	city := t.roleOrNull(schema.RoleCity)
	chainID := t.roleOrNull(schema.RoleChainID)

	query := fmt.Sprintf(`SELECT %[1]s AS postal_code, %[2]s AS city,
	COUNT(*) AS total_locations,
	SUM(CASE WHEN %[3]s = %[4]s THEN 1 ELSE 0 END) AS retail_locations,
	SUM(CASE WHEN %[3]s = %[5]s THEN 1 ELSE 0 END) AS grocery_locations,
	SUM(CASE WHEN %[6]s IS NOT NULL AND %[6]s != '' THEN 1 ELSE 0 END) AS chain_locations,
	%[7]s AS retail_types
FROM %[8]s WHERE %[9]s
GROUP BY %[1]s, %[2]s
ORDER BY total_locations DESC
LIMIT %[10]d`,
		postal, city,
		cat, args.add(categoryRetail), args.add(categoryGrocery),
		chainID,
		stringAgg(t.dialect, t.roleOrNull(schema.RoleSubCategory)),
		qident(t.table), where,
		topN,
	)
	return a.src.Query(ctx, query, args.args...)
}

func (a *Analyzer) customerEngagement(ctx context.Context, t *target, p Params) (*frame.Snapshot, error) {
	cat, err := t.role(schema.RoleCategory)
	if err != nil {
		return nil, err
	}
	args := &argList{dialect: t.dialect}
	where, err := t.retailFilter(args, categoryDining)
	if err != nil {
		return nil, err
	}

	minLoc := p.MinLocations
	if minLoc <= 0 {
		minLoc = a.cfg.EngagementMinLocations
	}
	query := fmt.Sprintf(`SELECT %[1]s AS main_category, %[2]s AS sub_category,
	COUNT(*) AS location_count,
	ROUND(AVG(%[3]s), 1) AS avg_popularity,
	ROUND(AVG(%[4]s), 2) AS avg_sentiment,
	ROUND(AVG(%[5]s), 1) AS avg_dwell_minutes
FROM %[6]s WHERE %[7]s
GROUP BY %[1]s, %[2]s
HAVING COUNT(*) > %[8]s
ORDER BY avg_popularity DESC, avg_sentiment DESC`,
		cat, t.roleOrNull(schema.RoleSubCategory),
		t.colOrNull("popularity_score"), t.colOrNull("sentiment_score"), t.colOrNull("dwell_time"),
		qident(t.table), where,
		args.add(minLoc),
	)
	return a.src.Query(ctx, query, args.args...)
}

func (a *Analyzer) territoryCoverage(ctx context.Context, t *target) (*frame.Snapshot, error) {
	city, err := t.role(schema.RoleCity)
	if err != nil {
		return nil, err
	}
	cat, err := t.role(schema.RoleCategory)
	if err != nil {
		return nil, err
	}

	args := &argList{dialect: t.dialect}
	where := "1=1"
	if status := t.hints.Column(schema.RoleStatus); status != "" {
		where = fmt.Sprintf("%s = %s", qident(status), args.add("open"))
	}
	chainID := t.roleOrNull(schema.RoleChainID)

	query := fmt.Sprintf(`SELECT %[1]s AS city,
	COUNT(*) AS total_locations,
	SUM(CASE WHEN %[2]s = %[3]s THEN 1 ELSE 0 END) AS retail_locations,
	SUM(CASE WHEN %[2]s = %[4]s THEN 1 ELSE 0 END) AS grocery_locations,
	SUM(CASE WHEN %[5]s IS NOT NULL AND %[5]s != '' THEN 1 ELSE 0 END) AS chain_locations,
	SUM(CASE WHEN %[5]s IS NULL OR %[5]s = '' THEN 1 ELSE 0 END) AS independent_locations,
	COUNT(DISTINCT %[6]s) AS category_diversity
FROM %[7]s WHERE %[8]s
GROUP BY %[1]s
ORDER BY total_locations DESC`,
		city, cat, args.add(categoryRetail), args.add(categoryGrocery),
		chainID, t.roleOrNull(schema.RoleSubCategory),
		qident(t.table), where,
	)
	return a.src.Query(ctx, query, args.args...)
}

func (a *Analyzer) criticalCompleteness(ctx context.Context, t *target) (*frame.Snapshot, error) {
	args := &argList{dialect: t.dialect}
	where, err := t.retailFilter(args)
	if err != nil {
		return nil, err
	}

	addr := t.roleOrNull(schema.RoleAddress)
	site := t.roleOrNull(schema.RoleWebsite)
	conf := t.roleOrNull(schema.RoleConfidence)
	hoursMissing := "1" // no hour columns means every row lacks hours
	if t.hasColumn("monday_open") && t.hasColumn("monday_close") {
		hoursMissing = fmt.Sprintf("CASE WHEN %s IS NULL OR %s IS NULL THEN 1 ELSE 0 END",
			qident("monday_open"), qident("monday_close"))
	}

	query := fmt.Sprintf(`SELECT
	COUNT(*) AS total_locations,
	SUM(CASE WHEN %[1]s IS NULL THEN 1 ELSE 0 END) AS missing_address,
	SUM(CASE WHEN %[1]s IS NULL THEN 1 ELSE 0 END) * 100.0 / COUNT(*) AS missing_address_pct,
	SUM(%[2]s) AS missing_hours,
	SUM(%[2]s) * 100.0 / COUNT(*) AS missing_hours_pct,
	SUM(CASE WHEN %[3]s IS NULL THEN 1 ELSE 0 END) AS missing_website,
	SUM(CASE WHEN %[3]s IS NULL THEN 1 ELSE 0 END) * 100.0 / COUNT(*) AS missing_website_pct,
	SUM(CASE WHEN %[4]s < %[5]s THEN 1 ELSE 0 END) AS low_confidence_records,
	SUM(CASE WHEN %[4]s < %[5]s THEN 1 ELSE 0 END) * 100.0 / COUNT(*) AS low_confidence_pct
FROM %[6]s WHERE %[7]s`,
		addr, hoursMissing, site,
		conf, args.add(a.cfg.LowConfidenceThreshold),
		qident(t.table), where,
	)
	return a.src.Query(ctx, query, args.args...)
}

func (a *Analyzer) chainDataQuality(ctx context.Context, t *target, p Params) (*frame.Snapshot, error) {
	chainName, err := t.role(schema.RoleChainName)
	if err != nil {
		return nil, err
	}
	args := &argList{dialect: t.dialect}
	where, err := t.retailFilter(args)
	if err != nil {
		return nil, err
	}
	if chainID := t.hints.Column(schema.RoleChainID); chainID != "" {
		where += fmt.Sprintf(" AND %s IS NOT NULL AND %s != ''", qident(chainID), qident(chainID))
	} else {
		where += fmt.Sprintf(" AND %s IS NOT NULL AND %s != ''", chainName, chainName)
	}

	minStores := p.MinLocations
	if minStores <= 0 {
		minStores = a.cfg.ChainQualityMinStores
	}
	addr := t.roleOrNull(schema.RoleAddress)
	site := t.roleOrNull(schema.RoleWebsite)
	conf := t.roleOrNull(schema.RoleConfidence)
	hoursMissing := "1"
	if t.hasColumn("monday_open") && t.hasColumn("monday_close") {
		hoursMissing = fmt.Sprintf("CASE WHEN %s IS NULL OR %s IS NULL THEN 1 ELSE 0 END",
			qident("monday_open"), qident("monday_close"))
	}

	query := fmt.Sprintf(`SELECT %[1]s AS chain_name,
	COUNT(*) AS total_locations,
	SUM(CASE WHEN %[2]s IS NULL THEN 1 ELSE 0 END) AS missing_address,
	SUM(%[3]s) AS missing_hours,
	SUM(CASE WHEN %[4]s IS NULL THEN 1 ELSE 0 END) AS missing_website,
	ROUND(AVG(%[5]s), 2) AS avg_confidence_score
FROM %[6]s WHERE %[7]s
GROUP BY %[1]s
HAVING COUNT(*) > %[8]s
ORDER BY total_locations DESC, avg_confidence_score`,
		chainName, addr, hoursMissing, site, conf,
		qident(t.table), where,
		args.add(minStores),
	)
	return a.src.Query(ctx, query, args.args...)
}

// sortedKeys is shared by the cluster aggregation.
func sortedKeys[K comparable, V any](m map[K]V, less func(a, b K) bool) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
	return keys
}

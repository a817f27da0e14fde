package cpg

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/dataplor/dataplor-cli/internal/frame"
	"github.com/dataplor/dataplor-cli/internal/schema"
)

// cluster is one 0.01-degree grid cell with at least minClusterSize
// open retail locations.
type cluster struct {
	postal     string
	latArea    float64
	lonArea    float64
	flat       []float64
	categories map[string]struct{}
	chains     map[string]struct{}
}

// geographicClusters groups open retail locations into rounded lat/lon
// cells, then computes each cell's centroid and bounding box from the
// member points. The cell grouping happens client-side so the geometry
// math stays in one place regardless of the SQL dialect.
func (a *Analyzer) geographicClusters(ctx context.Context, t *target, p Params) (*frame.Snapshot, error) {
	lat, err := t.role(schema.RoleLatitude)
	if err != nil {
		return nil, err
	}
	lon, err := t.role(schema.RoleLongitude)
	if err != nil {
		return nil, err
	}

	args := &argList{dialect: t.dialect}
	where, err := t.retailFilter(args)
	if err != nil {
		return nil, err
	}
	where += fmt.Sprintf(" AND %s IS NOT NULL AND %s IS NOT NULL", lat, lon)

	query := fmt.Sprintf("SELECT %s AS postal_code, %s AS latitude, %s AS longitude, %s AS main_category, %s AS chain_name FROM %s WHERE %s",
		t.roleOrNull(schema.RolePostalCode), lat, lon,
		t.roleOrNull(schema.RoleCategory), t.roleOrNull(schema.RoleChainName),
		qident(t.table), where,
	)
	points, err := a.src.Query(ctx, query, args.args...)
	if err != nil {
		return nil, err
	}

	minSize := p.MinClusterSize
	if minSize <= 0 {
		minSize = a.cfg.MinClusterSize
	}
	return buildClusters(points, minSize)
}

func buildClusters(points *frame.Snapshot, minSize int) (*frame.Snapshot, error) {
	postalCol, _ := points.Column("postal_code")
	latCol, _ := points.Column("latitude")
	lonCol, _ := points.Column("longitude")
	catCol, _ := points.Column("main_category")
	chainCol, _ := points.Column("chain_name")

	cells := make(map[string]*cluster)
	for i := 0; i < points.NumRows(); i++ {
		latV, okLat := frame.Float64(latCol.Values[i])
		lonV, okLon := frame.Float64(lonCol.Values[i])
		if !okLat || !okLon {
			continue
		}
		postal := stringOr(postalCol.Values[i], "")
		latArea := frame.Round2(latV)
		lonArea := frame.Round2(lonV)
		key := fmt.Sprintf("%s|%.2f|%.2f", postal, latArea, lonArea)

		c, ok := cells[key]
		if !ok {
			c = &cluster{
				postal: postal, latArea: latArea, lonArea: lonArea,
				categories: make(map[string]struct{}),
				chains:     make(map[string]struct{}),
			}
			cells[key] = c
		}
		c.flat = append(c.flat, lonV, latV)
		if cat := stringOr(catCol.Values[i], ""); cat != "" {
			c.categories[cat] = struct{}{}
		}
		if chain := stringOr(chainCol.Values[i], ""); chain != "" {
			c.chains[chain] = struct{}{}
		}
	}

	var kept []*cluster
	for _, c := range cells {
		if len(c.flat)/2 >= minSize {
			kept = append(kept, c)
		}
	}
	sort.Slice(kept, func(i, j int) bool {
		if len(kept[i].flat) != len(kept[j].flat) {
			return len(kept[i].flat) > len(kept[j].flat)
		}
		return kept[i].postal < kept[j].postal
	})

	cols := []*frame.Column{
		{Name: "postal_code"}, {Name: "latitude_area"}, {Name: "longitude_area"},
		{Name: "locations_in_cluster"},
		{Name: "centroid_latitude"}, {Name: "centroid_longitude"},
		{Name: "min_latitude"}, {Name: "min_longitude"},
		{Name: "max_latitude"}, {Name: "max_longitude"},
		{Name: "business_types"}, {Name: "chains_in_area"},
	}
	for _, c := range kept {
		mp := geom.NewMultiPointFlat(geom.XY, c.flat)
		centroid := xy.PointsCentroidFlat(geom.XY, mp.FlatCoords())
		bounds := mp.Bounds()

		vals := []any{
			nilIfEmpty(c.postal), c.latArea, c.lonArea,
			int64(len(c.flat)/2),
			centroid.Y(), centroid.X(),
			bounds.Min(1), bounds.Min(0),
			bounds.Max(1), bounds.Max(0),
			strings.Join(sortedSet(c.categories), ", "),
			strings.Join(sortedSet(c.chains), ", "),
		}
		for i := range cols {
			cols[i].Values = append(cols[i].Values, vals[i])
		}
	}
	return frame.New(Clusters, cols)
}

func sortedSet(m map[string]struct{}) []string {
	return sortedKeys(m, func(a, b string) bool { return a < b })
}

func stringOr(v any, fallback string) string {
	if v == nil {
		return fallback
	}
	return fmt.Sprintf("%v", v)
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

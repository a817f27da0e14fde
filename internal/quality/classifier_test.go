package quality

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataplor/dataplor-cli/internal/config"
	"github.com/dataplor/dataplor-cli/internal/frame"
	"github.com/dataplor/dataplor-cli/internal/model"
	"github.com/dataplor/dataplor-cli/internal/profile"
	"github.com/dataplor/dataplor-cli/internal/schema"
)

func testQualityConfig() config.QualityConfig {
	return config.QualityConfig{
		Scorer:                  "weighted",
		MissingCriticalPct:      20,
		MissingWarningPct:       5,
		DuplicateCriticalPct:    5,
		DuplicateWarningPct:     1,
		InvalidCoordCriticalPct: 10,
		MissingNameCriticalPct:  10,
		MissingCategoryCritPct:  15,
		ShortAddressWarningPct:  5,
		InvalidPhoneWarningPct:  5,
		MinAddressLength:        10,
		CategoricalMaxDistinct:  15,
	}
}

func classify(t *testing.T, cols []*frame.Column) *model.IssueSet {
	t.Helper()
	snap, err := frame.New("locations", cols)
	require.NoError(t, err)

	cfg := schema.DefaultConfig()
	hints := schema.Resolve(snap.ColumnNames(), cfg)
	prof, err := profile.New(cfg, nil).Profile(context.Background(), snap, hints)
	require.NoError(t, err)

	return NewClassifier(testQualityConfig()).Classify(prof, snap, hints)
}

func findIssue(set *model.IssueSet, kind model.IssueKind) (model.Issue, bool) {
	for _, is := range set.All() {
		if is.Kind == kind {
			return is, true
		}
	}
	return model.Issue{}, false
}

func TestClassify_MissingTiers(t *testing.T) {
	// address: 1 of 4 missing = 25% -> critical.
	// name: 1 of 4 missing would be 25% too, so keep it full.
	set := classify(t, []*frame.Column{
		{Name: "address", Values: []any{"123 Main Street", nil, "456 Oak Avenue", "789 Pine Road"}},
	})

	is, ok := findIssue(set, model.IssueHighMissingValues)
	require.True(t, ok)
	assert.Equal(t, model.SeverityCritical, is.Severity)
	assert.Equal(t, []string{"address"}, is.Columns)
	assert.Equal(t, 25.0, is.Metric)
}

func TestClassify_MissingWarningTier(t *testing.T) {
	vals := make([]any, 100)
	for i := range vals {
		vals[i] = "some value here"
	}
	for i := 0; i < 10; i++ {
		vals[i] = nil // 10% missing -> warning
	}
	set := classify(t, []*frame.Column{{Name: "website", Values: vals}})

	_, critical := findIssue(set, model.IssueHighMissingValues)
	assert.False(t, critical)
	is, ok := findIssue(set, model.IssueMediumMissingValues)
	require.True(t, ok)
	assert.Equal(t, model.SeverityWarning, is.Severity)
}

func TestClassify_DuplicateBoundary(t *testing.T) {
	// Exactly 5% duplicates is a warning, not critical: the tier
	// requires strictly greater than the threshold.
	cols := make([]any, 20)
	for i := range cols {
		cols[i] = string(rune('a' + i))
	}
	cols[19] = "a" // one duplicate of row 0 -> 5%
	set := classify(t, []*frame.Column{{Name: "name", Values: cols}})

	_, critical := findIssue(set, model.IssueHighDuplicateRows)
	assert.False(t, critical)
	is, ok := findIssue(set, model.IssueMediumDuplicateRows)
	require.True(t, ok)
	assert.Equal(t, 5.0, is.Metric)
}

func TestClassify_DuplicateCritical(t *testing.T) {
	set := classify(t, []*frame.Column{
		{Name: "name", Values: []any{"a", "a", "a", "b"}}, // 50% duplicates
	})

	is, ok := findIssue(set, model.IssueHighDuplicateRows)
	require.True(t, ok)
	assert.Equal(t, model.SeverityCritical, is.Severity)
}

func TestClassify_InvalidCoordinates(t *testing.T) {
	set := classify(t, []*frame.Column{
		{Name: "latitude", Values: []any{95.0, 43.6, 200.0, 43.7}},
		{Name: "longitude", Values: []any{-116.2, -116.2, -116.3, -116.1}},
	})

	is, ok := findIssue(set, model.IssueInvalidCoordinates)
	require.True(t, ok)
	assert.Equal(t, model.SeverityCritical, is.Severity)
	assert.Equal(t, 50.0, is.Metric)
}

func TestClassify_MissingNamesAndCategories(t *testing.T) {
	set := classify(t, []*frame.Column{
		{Name: "name", Values: []any{nil, "Shop", nil, "Store"}},          // 50% > 10
		{Name: "main_category", Values: []any{nil, "retail", nil, nil}},   // 75% > 15
		{Name: "city", Values: []any{"Boise", "Boise", "Nampa", "Boise"}}, // complete
	})

	_, ok := findIssue(set, model.IssueMissingBusinessNames)
	assert.True(t, ok)
	_, ok = findIssue(set, model.IssueMissingCategories)
	assert.True(t, ok)
}

func TestClassify_ShortAndEmptyAddresses(t *testing.T) {
	set := classify(t, []*frame.Column{
		{Name: "address", Values: []any{"short", "123 Main Street Suite 4", "  ", "12 A"}},
	})

	is, ok := findIssue(set, model.IssueIncompleteAddresses)
	require.True(t, ok)
	assert.Equal(t, model.SeverityWarning, is.Severity)
	assert.Equal(t, 50.0, is.Metric) // "short" and "12 A"

	empty, ok := findIssue(set, model.IssueEmptyAddresses)
	require.True(t, ok)
	assert.Equal(t, 1.0, empty.Metric)
}

func TestClassify_InvalidPhones(t *testing.T) {
	set := classify(t, []*frame.Column{
		{Name: "phone", Values: []any{"+1 (208) 555-0100", "not-a-phone", "abc", "208 555 0101"}},
	})

	is, ok := findIssue(set, model.IssueInvalidPhoneNumbers)
	require.True(t, ok)
	assert.Equal(t, 50.0, is.Metric)
}

func TestClassify_AbsentOptionalColumns(t *testing.T) {
	// No phone, address, or coordinate columns: those checks simply
	// produce nothing.
	set := classify(t, []*frame.Column{
		{Name: "name", Values: []any{"a", "b"}},
	})

	for _, kind := range []model.IssueKind{
		model.IssueInvalidPhoneNumbers,
		model.IssueIncompleteAddresses,
		model.IssueInvalidCoordinates,
	} {
		_, ok := findIssue(set, kind)
		assert.False(t, ok, string(kind))
	}
}

func TestClassify_PossiblyCategorical(t *testing.T) {
	set := classify(t, []*frame.Column{
		{Name: "price_tier", Values: []any{int64(1), int64(2), int64(3), int64(1)}},
	})

	is, ok := findIssue(set, model.IssuePossiblyCategorical)
	require.True(t, ok)
	assert.Equal(t, 3.0, is.Metric)
}

func TestClassify_LeadingZeroID(t *testing.T) {
	set := classify(t, []*frame.Column{
		{Name: "postal_code", Values: []any{"08234", "90210"}},
	})

	_, ok := findIssue(set, model.IssueLeadingZeroID)
	assert.True(t, ok)
}

func TestClassify_NumericStoredAsString(t *testing.T) {
	set := classify(t, []*frame.Column{
		{Name: "revenue", Values: []any{"100", "250", "3000", "17.5", "42"}},
	})

	is, ok := findIssue(set, model.IssueNumericStoredAsText)
	require.True(t, ok)
	assert.Equal(t, 100.0, is.Metric)
}

func TestClassify_DateStoredAsString(t *testing.T) {
	set := classify(t, []*frame.Column{
		{Name: "opened_date", Values: []any{"2023-01-15", "2023-02-20"}},
	})

	_, ok := findIssue(set, model.IssueDateStoredAsString)
	assert.True(t, ok)
}

func TestClassify_MissingGeoWithAddress(t *testing.T) {
	set := classify(t, []*frame.Column{
		{Name: "address", Values: []any{"123 Main Street", "456 Oak Avenue", nil}},
		{Name: "latitude", Values: []any{43.6, nil, nil}},
		{Name: "longitude", Values: []any{-116.2, nil, nil}},
	})

	is, ok := findIssue(set, model.IssueMissingGeoForAddress)
	require.True(t, ok)
	assert.Equal(t, 1.0, is.Metric)
}

func TestClassify_EmptyTable(t *testing.T) {
	set := classify(t, nil)
	assert.Empty(t, set.All())
}

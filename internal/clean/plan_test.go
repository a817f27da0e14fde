package clean

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataplor/dataplor-cli/internal/model"
)

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPlan_BareList(t *testing.T) {
	path := writePlan(t, `
- op: fill_missing
  column: category
  method: constant
  value: unknown
- op: remove_duplicates
  subset: [name, address]
  keep: last
`)

	steps, err := LoadPlan(path)
	require.NoError(t, err)
	require.Len(t, steps, 2)

	assert.Equal(t, model.OpFillMissing, steps[0].Op)
	assert.Equal(t, "category", steps[0].Column)
	assert.Equal(t, model.FillConstant, steps[0].Method)
	assert.Equal(t, "unknown", steps[0].Value)

	assert.Equal(t, model.OpRemoveDuplicates, steps[1].Op)
	assert.Equal(t, []string{"name", "address"}, steps[1].Subset)
	assert.Equal(t, "last", steps[1].Keep)
}

func TestLoadPlan_StepsKey(t *testing.T) {
	path := writePlan(t, `
steps:
  - op: standardize_values
    column: state
    mapping:
      Idaho: ID
    case_fold: upper
`)

	steps, err := LoadPlan(path)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, model.OpStandardizeValues, steps[0].Op)
	assert.Equal(t, map[string]string{"Idaho": "ID"}, steps[0].Mapping)
	assert.Equal(t, "upper", steps[0].CaseFold)
}

func TestLoadPlan_Empty(t *testing.T) {
	path := writePlan(t, "[]\n")

	_, err := LoadPlan(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contains no steps")
}

func TestLoadPlan_MissingFile(t *testing.T) {
	_, err := LoadPlan(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read plan")
}

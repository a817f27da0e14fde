package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_ExactAndSubstring(t *testing.T) {
	cols := []string{"Name", "latitude", "longitude", "business_phone_number", "main_category"}
	h := Resolve(cols, DefaultConfig())

	assert.Equal(t, "Name", h.Column(RoleName))
	assert.Equal(t, "latitude", h.Column(RoleLatitude))
	assert.Equal(t, "longitude", h.Column(RoleLongitude))
	assert.Equal(t, "business_phone_number", h.Column(RolePhone)) // substring match
	assert.Equal(t, "main_category", h.Column(RoleCategory))
	assert.False(t, h.Has(RoleAddress))
}

func TestResolve_FirstPatternWins(t *testing.T) {
	// Both "category" and "main_category" match the category role;
	// the earlier pattern in the list wins.
	h := Resolve([]string{"main_category", "category"}, DefaultConfig())
	assert.Equal(t, "category", h.Column(RoleCategory))
}

func TestResolve_DateColumns(t *testing.T) {
	h := Resolve([]string{"opened_date", "last_visit_time", "name"}, DefaultConfig())
	assert.ElementsMatch(t, []string{"opened_date", "last_visit_time"}, h.DateColumns)
}

func TestIsIDLike(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.IsIDLike("dataplor_id"))
	assert.True(t, cfg.IsIDLike("postal_code"))
	assert.True(t, cfg.IsIDLike("SKU"))
	assert.False(t, cfg.IsIDLike("latitude"))
}

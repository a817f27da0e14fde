// Package schema resolves semantic column roles for a loaded table.
//
// POI tables have no fixed schema; checks care about roles (latitude,
// address, phone, ...) rather than literal column names. Roles map to
// configurable name patterns and are resolved once per load, so absence
// of a role is a normal branch everywhere downstream.
package schema

import "strings"

// Role identifies a semantic column role used by the quality checks.
type Role string

const (
	RoleLatitude    Role = "latitude"
	RoleLongitude   Role = "longitude"
	RoleName        Role = "name"
	RoleCategory    Role = "category"
	RoleSubCategory Role = "sub_category"
	RoleAddress     Role = "address"
	RoleCity        Role = "city"
	RoleState       Role = "state"
	RolePostalCode  Role = "postal_code"
	RolePhone       Role = "phone"
	RoleWebsite     Role = "website"
	RoleChainID     Role = "chain_id"
	RoleChainName   Role = "chain_name"
	RoleConfidence  Role = "confidence"
	RoleStatus      Role = "status"
)

// Config maps roles to acceptable column-name patterns. A pattern wrapped
// in '*' matches as a substring; otherwise it matches the lowercased name
// exactly. DateTerms are always substring matches.
type Config struct {
	Roles     map[string][]string `yaml:"roles" mapstructure:"roles"`
	DateTerms []string            `yaml:"date_terms" mapstructure:"date_terms"`
	IDTerms   []string            `yaml:"id_terms" mapstructure:"id_terms"`
}

// DefaultConfig returns the built-in role patterns.
func DefaultConfig() Config {
	return Config{
		Roles: map[string][]string{
			string(RoleLatitude):    {"latitude", "lat"},
			string(RoleLongitude):   {"longitude", "long", "lng"},
			string(RoleName):        {"name", "business_name", "store_name", "poi_name"},
			string(RoleCategory):    {"category", "categories", "main_category", "classification", "type", "business_type"},
			string(RoleSubCategory): {"sub_category", "subcategory"},
			string(RoleAddress):     {"address", "street", "street_address"},
			string(RoleCity):        {"city"},
			string(RoleState):       {"state"},
			string(RolePostalCode):  {"postal_code", "zip", "zip_code", "zipcode"},
			string(RolePhone):       {"*phone*"},
			string(RoleWebsite):     {"website", "url", "web"},
			string(RoleChainID):     {"chain_id"},
			string(RoleChainName):   {"chain_name", "chain"},
			string(RoleConfidence):  {"data_quality_confidence_score", "confidence_score", "confidence"},
			string(RoleStatus):      {"open_closed_status", "status"},
		},
		DateTerms: []string{"date", "time", "year", "month", "day"},
		IDTerms:   []string{"id", "code", "sku", "upc", "ean", "gtin"},
	}
}

// Hints holds resolved column names for each role. An empty string means
// the table has no column for that role.
type Hints struct {
	ByRole      map[Role]string
	DateColumns []string
}

// Column returns the resolved column for a role, or "" when absent.
func (h Hints) Column(r Role) string { return h.ByRole[r] }

// Has reports whether the table has a column for the role.
func (h Hints) Has(r Role) bool { return h.ByRole[r] != "" }

// Resolve matches table columns against the configured role patterns.
// The first column matching any pattern wins, in pattern order.
func Resolve(columns []string, cfg Config) Hints {
	h := Hints{ByRole: make(map[Role]string)}

	lower := make([]string, len(columns))
	for i, c := range columns {
		lower[i] = strings.ToLower(c)
	}

	for role, patterns := range cfg.Roles {
		for _, pat := range patterns {
			if col := matchFirst(columns, lower, pat); col != "" {
				h.ByRole[Role(role)] = col
				break
			}
		}
	}

	for i, lc := range lower {
		for _, term := range cfg.DateTerms {
			if strings.Contains(lc, term) {
				h.DateColumns = append(h.DateColumns, columns[i])
				break
			}
		}
	}

	return h
}

// IsIDLike reports whether a column name looks like an identifier column
// (skipped by outlier detection).
func (c Config) IsIDLike(name string) bool {
	lc := strings.ToLower(name)
	for _, term := range c.IDTerms {
		if strings.Contains(lc, term) {
			return true
		}
	}
	return false
}

func matchFirst(columns, lower []string, pattern string) string {
	sub := strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*")
	pat := strings.Trim(strings.ToLower(pattern), "*")
	for i, lc := range lower {
		if sub && strings.Contains(lc, pat) {
			return columns[i]
		}
		if !sub && lc == pat {
			return columns[i]
		}
	}
	return ""
}

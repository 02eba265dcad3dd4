package scope

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Role is one of the closed set of roles the scope resolver understands.
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleSalesRep      Role = "sales_rep"
	RoleSalesManager  Role = "sales_manager"
	RoleStoreDirector Role = "store_director"
	RoleRegionManager Role = "region_manager"
	RoleBrandManager  Role = "brand_manager"
	RoleStaff         Role = "staff"
)

var knownRoles = map[Role]bool{
	RoleAdmin:         true,
	RoleSalesRep:      true,
	RoleSalesManager:  true,
	RoleStoreDirector: true,
	RoleRegionManager: true,
	RoleBrandManager:  true,
	RoleStaff:         true,
}

// Aliases maps external role codes (as issued in tokens or stored on
// employee rows) onto the closed role set.
type Aliases map[string]Role

// DefaultAliases returns the built-in role aliases.
func DefaultAliases() Aliases {
	return Aliases{
		"管理员":   RoleAdmin,
		"超级管理员": RoleAdmin,
		"销售顾问":  RoleSalesRep,
		"销售经理":  RoleSalesManager,
		"店总":    RoleStoreDirector,
		"区域经理":  RoleRegionManager,
		"品牌经理":  RoleBrandManager,
	}
}

// LoadAliases returns the built-in aliases merged with a YAML file mapping
// external codes to canonical roles:
//
//	super_admin: admin
//	销售主管: sales_manager
//
// An empty path yields the built-in set.
func LoadAliases(path string) (Aliases, error) {
	aliases := DefaultAliases()
	if strings.TrimSpace(path) == "" {
		return aliases, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read role aliases: %w", err)
	}

	var entries map[string]string
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse role aliases: %w", err)
	}

	for code, target := range entries {
		role := Role(strings.ToLower(strings.TrimSpace(target)))
		if !knownRoles[role] {
			return nil, fmt.Errorf("role alias %q maps to unknown role %q", code, target)
		}
		aliases[strings.TrimSpace(code)] = role
	}
	return aliases, nil
}

// Parse maps a single external code onto a Role.
func (a Aliases) Parse(code string) (Role, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", false
	}
	if role := Role(strings.ToLower(code)); knownRoles[role] {
		return role, true
	}
	role, ok := a[code]
	return role, ok
}

// RoleSet is the parsed, deduplicated set of roles an actor holds.
type RoleSet map[Role]bool

// ParseRoles maps every code through the aliases, ignoring unknown codes.
func (a Aliases) ParseRoles(codes ...string) RoleSet {
	set := RoleSet{}
	for _, code := range codes {
		if role, ok := a.Parse(code); ok {
			set[role] = true
		}
	}
	return set
}

// Has reports whether role is in the set.
func (s RoleSet) Has(role Role) bool {
	return s[role]
}

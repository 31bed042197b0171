// Package permission turns the module → actions permission map into the
// grouped, ordered list shown by the role editor, and maps selections back
// to permission ids.
package permission

import (
	"cmp"
	"maps"
	"slices"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Module is one permission action within a module.
type Module struct {
	Action     string
	ModuleName string
	UID        string
	IsSelected bool
}

// Group is a titled, ordered set of module actions.
type Group struct {
	Title     string
	SortIndex int
	Actions   []Module
}

// sortIndex fixes the display position of known modules.
var sortIndex = map[string]int{
	"dashboard":       1,
	"pos":             2,
	"invoice":         3,
	"product":         4,
	"category":        5,
	"customer":        6,
	"wallet":          7,
	"report":          8,
	"user management": 9,
	"role":            10,
	"setting":         11,
}

// SortIndex returns the display position of a module. Unknown modules get 0.
func SortIndex(moduleName string) int {
	return sortIndex[moduleName]
}

// GroupAndSort builds one group per module, titled from the module key, with
// every action unselected. Groups are ordered by SortIndex; modules with
// equal index keep the lexical order of their keys.
func GroupAndSort(modules map[string][]Module) []Group {
	title := cases.Title(language.English)

	groups := make([]Group, 0, len(modules))
	for _, name := range slices.Sorted(maps.Keys(modules)) {
		actions := make([]Module, len(modules[name]))
		for i, m := range modules[name] {
			m.IsSelected = false
			actions[i] = m
		}
		groups = append(groups, Group{
			Title:     title.String(name),
			SortIndex: SortIndex(name),
			Actions:   actions,
		})
	}

	slices.SortStableFunc(groups, func(a, b Group) int {
		return cmp.Compare(a.SortIndex, b.SortIndex)
	})
	return groups
}

// ExtractSelectedIDs returns the UIDs of selected actions in group order.
func ExtractSelectedIDs(groups []Group) []string {
	var ids []string
	for _, g := range groups {
		for _, a := range g.Actions {
			if a.IsSelected {
				ids = append(ids, a.UID)
			}
		}
	}
	return ids
}

// ApplySelection returns copies of groups where an action is selected iff
// its UID is in ids. The input groups are not modified.
func ApplySelection(groups []Group, ids []string) []Group {
	selected := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		selected[id] = struct{}{}
	}

	out := make([]Group, len(groups))
	for i, g := range groups {
		actions := make([]Module, len(g.Actions))
		for j, a := range g.Actions {
			_, a.IsSelected = selected[a.UID]
			actions[j] = a
		}
		g.Actions = actions
		out[i] = g
	}
	return out
}

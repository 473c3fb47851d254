// Package groups serves the cooperative group reference list. The list is
// fetched from the upstream core API and silently degrades to a fixed static
// table when the backend is unreachable or returns nothing, so registration
// stays usable for reads while offline.
package groups

import (
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
)

// Group is read-only reference data: a named sub-unit of the cooperative.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UnmarshalJSON accepts both numeric and string identifiers, since the
// upstream API has historically served ids as numbers.
func (g *Group) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID   json.Number `json:"id"`
		Name string      `json:"name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	g.ID = raw.ID.String()
	g.Name = raw.Name
	return nil
}

// Static returns the built-in six-group table used when the upstream list is
// unavailable. Identifiers match the upstream database so submissions made
// against the fallback still resolve correctly server-side.
func Static() []Group {
	return []Group{
		{ID: "1", Name: "Irorunde 1"},
		{ID: "2", Name: "Irorunde 2"},
		{ID: "3", Name: "Irorunde 3"},
		{ID: "4", Name: "Ifesowapo"},
		{ID: "5", Name: "Oluwanisola"},
		{ID: "6", Name: "Irewolede"},
	}
}

// ResolveName maps a group identifier to its display name. Lookup order:
// the loaded list, then the static table, then a synthesized generic label.
// The resolved name, not the identifier, is what registration submits.
func ResolveName(loaded []Group, id string) string {
	if g, ok := lo.Find(loaded, func(g Group) bool { return g.ID == id }); ok {
		return g.Name
	}
	if g, ok := lo.Find(Static(), func(g Group) bool { return g.ID == id }); ok {
		return g.Name
	}
	return fmt.Sprintf("Group %s", id)
}

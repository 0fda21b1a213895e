package rights

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// SourceMenu is one record of the three-level menu rights payload.
type SourceMenu struct {
	ID             int64  `json:"id"`
	MenuName       string `json:"menu_name"`
	ParentID       int64  `json:"parent_id"`
	CanView        bool   `json:"can_view"`
	CanAdd         bool   `json:"can_add"`
	CanEdit        bool   `json:"can_edit"`
	CanDelete      bool   `json:"can_delete"`
	DashboardRight bool   `json:"dashboard_right"`
}

func (m SourceMenu) Permissions() Permissions {
	return Permissions{
		View:      m.CanView,
		Add:       m.CanAdd,
		Edit:      m.CanEdit,
		Delete:    m.CanDelete,
		Dashboard: m.DashboardRight,
	}
}

// Source is the flat payload: top-level menus, second-level menus keyed by
// their level-1 parent id, third-level menus keyed by their level-2 parent id.
type Source struct {
	Level1 []SourceMenu            `json:"level_1"`
	Level2 map[int64][]SourceMenu `json:"level_2"`
	Level3 map[int64][]SourceMenu `json:"level_3"`
}

// DecodeSource parses a payload whose flags and ids may arrive as numbers,
// strings or booleans. Only a document that is not an object, or whose
// level_1 is not a list, is rejected; everything below that is defaulted.
func DecodeSource(raw []byte) (Source, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil || top == nil {
		return Source{}, fmt.Errorf("%w: payload is not an object", ErrMalformedSourceData)
	}
	level1Raw, ok := top["level_1"]
	if !ok {
		return Source{}, fmt.Errorf("%w: level_1 missing", ErrMalformedSourceData)
	}
	var level1 []json.RawMessage
	if err := json.Unmarshal(level1Raw, &level1); err != nil || level1 == nil {
		return Source{}, fmt.Errorf("%w: level_1 is not a list", ErrMalformedSourceData)
	}

	src := Source{
		Level1: decodeRecords(level1),
		Level2: decodeLevel(top["level_2"]),
		Level3: decodeLevel(top["level_3"]),
	}
	return src, nil
}

func decodeLevel(raw json.RawMessage) map[int64][]SourceMenu {
	out := map[int64][]SourceMenu{}
	if len(raw) == 0 {
		return out
	}

	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keyed); err == nil {
		for key, entry := range keyed {
			parentID, err := parseID(key)
			if err != nil {
				continue
			}
			var records []json.RawMessage
			if err := json.Unmarshal(entry, &records); err != nil {
				continue
			}
			menus := decodeRecords(records)
			for i := range menus {
				if menus[i].ParentID == 0 {
					menus[i].ParentID = parentID
				}
			}
			out[parentID] = append(out[parentID], menus...)
		}
		return out
	}

	// Some producers send an empty level as [] or a flat list of records.
	var flat []json.RawMessage
	if err := json.Unmarshal(raw, &flat); err == nil {
		for _, menu := range decodeRecords(flat) {
			out[menu.ParentID] = append(out[menu.ParentID], menu)
		}
	}
	return out
}

// parseID reads ids as decimal even with leading zeros; cast alone would
// treat "010" as octal.
func parseID(v any) (int64, error) {
	if s, ok := v.(string); ok {
		if id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return id, nil
		}
	}
	return cast.ToInt64E(v)
}

func idField(v any) int64 {
	id, err := parseID(v)
	if err != nil {
		return 0
	}
	return id
}

func decodeRecords(records []json.RawMessage) []SourceMenu {
	out := make([]SourceMenu, 0, len(records))
	for _, rec := range records {
		var fields map[string]any
		if err := json.Unmarshal(rec, &fields); err != nil || fields == nil {
			continue
		}
		out = append(out, SourceMenu{
			ID:             idField(fields["id"]),
			MenuName:       cast.ToString(fields["menu_name"]),
			ParentID:       idField(fields["parent_id"]),
			CanView:        coerceFlag(fields["can_view"]),
			CanAdd:         coerceFlag(fields["can_add"]),
			CanEdit:        coerceFlag(fields["can_edit"]),
			CanDelete:      coerceFlag(fields["can_delete"]),
			DashboardRight: coerceFlag(fields["dashboard_right"]),
		})
	}
	return out
}

// coerceFlag is the default-fill rule for capability fields: anything that
// is not recognisably true is false.
func coerceFlag(v any) bool {
	if v == nil {
		return false
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false
	}
	return b
}

// BuildForest nests the three levels, keeping input order at each level.
func BuildForest(src Source) Forest {
	forest := make(Forest, 0, len(src.Level1))
	for _, l1 := range src.Level1 {
		node := MenuNode{ID: l1.ID, Name: l1.MenuName, Permissions: l1.Permissions()}
		for _, l2 := range src.Level2[l1.ID] {
			child := MenuNode{ID: l2.ID, Name: l2.MenuName, Permissions: l2.Permissions()}
			for _, l3 := range src.Level3[l2.ID] {
				child.Children = append(child.Children, MenuNode{ID: l3.ID, Name: l3.MenuName, Permissions: l3.Permissions()})
			}
			node.Children = append(node.Children, child)
		}
		forest = append(forest, node)
	}
	return forest
}

// FlattenSource is the inverse of BuildForest. Nodes deeper than the third
// level have no place in the payload and are dropped.
func FlattenSource(f Forest) Source {
	src := Source{
		Level1: make([]SourceMenu, 0, len(f)),
		Level2: map[int64][]SourceMenu{},
		Level3: map[int64][]SourceMenu{},
	}
	for _, l1 := range f {
		src.Level1 = append(src.Level1, sourceMenu(l1, 0))
		for _, l2 := range l1.Children {
			src.Level2[l1.ID] = append(src.Level2[l1.ID], sourceMenu(l2, l1.ID))
			for _, l3 := range l2.Children {
				src.Level3[l2.ID] = append(src.Level3[l2.ID], sourceMenu(l3, l2.ID))
			}
		}
	}
	return src
}

func sourceMenu(n MenuNode, parentID int64) SourceMenu {
	return SourceMenu{
		ID:             n.ID,
		MenuName:       n.Name,
		ParentID:       parentID,
		CanView:        n.Permissions.View,
		CanAdd:         n.Permissions.Add,
		CanEdit:        n.Permissions.Edit,
		CanDelete:      n.Permissions.Delete,
		DashboardRight: n.Permissions.Dashboard,
	}
}

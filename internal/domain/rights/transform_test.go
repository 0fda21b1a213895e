package rights

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSource = `{
  "level_1": [
    {"id": 1, "menu_name": "Dashboard", "parent_id": 0, "can_view": 1, "can_add": 0, "dashboard_right": "1"},
    {"id": "2", "menu_name": "Leave", "can_view": true, "can_edit": "true"},
    {"id": 3, "menu_name": "Payroll", "can_view": null, "can_delete": "yes"}
  ],
  "level_2": {
    "2": [
      {"id": 21, "menu_name": "Allocation", "parent_id": 2, "can_view": 1, "can_add": 1},
      {"id": 22, "menu_name": "Requests", "parent_id": 2}
    ],
    "3": [
      {"id": 31, "menu_name": "Form 16", "parent_id": 3, "can_view": "0"}
    ]
  },
  "level_3": {
    "31": [
      {"id": 311, "menu_name": "Generate", "parent_id": 31, "can_edit": 1},
      {"id": 312, "menu_name": "Print", "parent_id": 31, "dashboard_right": false}
    ]
  }
}`

func TestDecodeSourceCoercesFlags(t *testing.T) {
	src, err := DecodeSource([]byte(sampleSource))
	require.NoError(t, err)
	require.Len(t, src.Level1, 3)

	assert.Equal(t, Permissions{View: true, Dashboard: true}, src.Level1[0].Permissions())
	assert.Equal(t, int64(2), src.Level1[1].ID)
	assert.Equal(t, Permissions{View: true, Edit: true}, src.Level1[1].Permissions())
	assert.Equal(t, Permissions{}, src.Level1[2].Permissions(), "null and unrecognised values default to false")

	require.Len(t, src.Level2[2], 2)
	assert.Equal(t, Permissions{View: true, Add: true}, src.Level2[2][0].Permissions())
	assert.Equal(t, Permissions{}, src.Level2[2][1].Permissions())
	assert.Equal(t, Permissions{Edit: true}, src.Level3[31][0].Permissions())
}

func TestBuildForestKeepsOrderAndNesting(t *testing.T) {
	src, err := DecodeSource([]byte(sampleSource))
	require.NoError(t, err)

	forest := BuildForest(src)
	require.Len(t, forest, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{forest[0].ID, forest[1].ID, forest[2].ID})
	assert.Nil(t, forest[0].Children, "parent without child entry has no children")

	require.Len(t, forest[1].Children, 2)
	assert.Equal(t, "Allocation", forest[1].Children[0].Name)
	assert.Equal(t, "Requests", forest[1].Children[1].Name)

	form16, err := forest.NodeAt(Path{2, 0})
	require.NoError(t, err)
	require.Len(t, form16.Children, 2)
	assert.Equal(t, int64(311), form16.Children[0].ID)
	assert.Equal(t, int64(312), form16.Children[1].ID)

	require.NoError(t, forest.Validate())
}

func TestDecodeSourceLevelVariants(t *testing.T) {
	raw := `{
	  "level_1": [{"id": 1, "menu_name": "HR"}],
	  "level_2": [{"id": 11, "menu_name": "Leave", "parent_id": 1}, {"id": 12, "menu_name": "Tasks", "parent_id": 1}],
	  "level_3": "n/a"
	}`
	src, err := DecodeSource([]byte(raw))
	require.NoError(t, err)
	assert.Len(t, src.Level2[1], 2)
	assert.Empty(t, src.Level3)

	forest := BuildForest(src)
	require.Len(t, forest[0].Children, 2)
	assert.Nil(t, forest[0].Children[0].Children)
}

func TestDecodeSourceKeepsSiblingsOfUnreadableEntry(t *testing.T) {
	raw := `{"level_1": [{"id": 1}], "level_2": {"1": [{"id": 2}], "3": {"id": 4}, "x": [{"id": 5}]}}`
	src, err := DecodeSource([]byte(raw))
	require.NoError(t, err)
	require.Len(t, src.Level2[1], 1)
	assert.Equal(t, int64(2), src.Level2[1][0].ID)
	assert.NotContains(t, src.Level2, int64(3))

	forest := BuildForest(src)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, int64(2), forest[0].Children[0].ID)
}

func TestDecodeSourceReadsIDsAsDecimal(t *testing.T) {
	raw := `{
	  "level_1": [{"id": "010"}],
	  "level_2": {"010": [{"id": "011"}]},
	  "level_3": {"11": [{"id": " 0111 ", "parent_id": "011"}]}
	}`
	src, err := DecodeSource([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, int64(10), src.Level1[0].ID)
	require.Len(t, src.Level2[10], 1)
	assert.Equal(t, int64(11), src.Level2[10][0].ID)
	assert.Equal(t, int64(10), src.Level2[10][0].ParentID)
	require.Len(t, src.Level3[11], 1)
	assert.Equal(t, int64(111), src.Level3[11][0].ID)
	assert.Equal(t, int64(11), src.Level3[11][0].ParentID)
}

func TestDecodeSourceSkipsNonObjectRecords(t *testing.T) {
	src, err := DecodeSource([]byte(`{"level_1": [{"id": 1}, 42, "x", null, {"id": 2}]}`))
	require.NoError(t, err)
	require.Len(t, src.Level1, 2)
	assert.Equal(t, int64(2), src.Level1[1].ID)
	assert.Empty(t, src.Level2)
}

func TestDecodeSourceMalformed(t *testing.T) {
	tests := map[string]string{
		"not json":          `<html>`,
		"array document":    `[{"id": 1}]`,
		"null document":     `null`,
		"level_1 missing":   `{"level_2": {}}`,
		"level_1 object":    `{"level_1": {"id": 1}}`,
		"level_1 null":      `{"level_1": null}`,
		"level_1 is string": `{"level_1": "menus"}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeSource([]byte(raw))
			assert.ErrorIs(t, err, ErrMalformedSourceData)
		})
	}
}

func TestDecodeSourceEmptyLevel1(t *testing.T) {
	src, err := DecodeSource([]byte(`{"level_1": []}`))
	require.NoError(t, err)
	assert.Empty(t, BuildForest(src))
}

func TestFlattenSourceRoundTrip(t *testing.T) {
	src, err := DecodeSource([]byte(sampleSource))
	require.NoError(t, err)
	forest := BuildForest(src)

	flat := FlattenSource(forest)
	assert.True(t, Equal(forest, BuildForest(flat)))

	raw, err := json.Marshal(flat)
	require.NoError(t, err)
	again, err := DecodeSource(raw)
	require.NoError(t, err)
	assert.True(t, Equal(forest, BuildForest(again)))
}

package rights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	path, err := ParsePath("2.0.1")
	require.NoError(t, err)
	assert.Equal(t, Path{2, 0, 1}, path)
	assert.Equal(t, "2.0.1", path.String())

	for _, raw := range []string{"", "a", "1..2", "1.-1"} {
		_, err := ParsePath(raw)
		assert.ErrorIs(t, err, ErrInvalidPath, raw)
	}
}

func TestNodeAtDepth(t *testing.T) {
	forest := sampleForest()

	node, err := forest.NodeAt(Path{0})
	require.NoError(t, err)
	assert.Equal(t, int64(1), node.ID)

	node, err = forest.NodeAt(Path{0, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, int64(4), node.ID)
}

func TestCloneIsDeep(t *testing.T) {
	forest := sampleForest()
	clone := forest.Clone()
	clone[0].Children[0].Children[0].Permissions.View = true

	assert.False(t, forest[0].Children[0].Children[0].Permissions.View)
	assert.Nil(t, Forest(nil).Clone())
}

func TestEqual(t *testing.T) {
	base := sampleForest()

	renamed := base.Clone()
	renamed[0].Name = "People"
	assert.True(t, Equal(base, renamed), "names are display-only")

	flipped := base.Clone()
	flipped[0].Children[1].Permissions.Add = true
	assert.False(t, Equal(base, flipped))

	reordered := base.Clone()
	reordered[0], reordered[1] = reordered[1], reordered[0]
	assert.False(t, Equal(base, reordered))

	shorter := base.Clone()
	shorter[0].Children = shorter[0].Children[:1]
	assert.False(t, Equal(base, shorter))

	assert.True(t, Equal(nil, Forest{}))
}

func TestValidateDuplicateIDs(t *testing.T) {
	require.NoError(t, sampleForest().Validate())

	dup := sampleForest()
	dup[1].ID = 3
	assert.ErrorIs(t, dup.Validate(), ErrDuplicateMenuID)
}

func TestFindAndAllows(t *testing.T) {
	forest := sampleForest()

	node, path, ok := forest.Find(4)
	require.True(t, ok)
	assert.Equal(t, "Requests", node.Name)
	assert.Equal(t, Path{0, 0, 1}, path)

	_, _, ok = forest.Find(99)
	assert.False(t, ok)

	assert.True(t, forest.Allows(4, CapEdit))
	assert.False(t, forest.Allows(4, CapView))
	assert.False(t, forest.Allows(99, CapView))
}

func TestVisiblePrunesHiddenSubtrees(t *testing.T) {
	forest := Forest{
		{ID: 1, Permissions: Permissions{View: true}, Children: []MenuNode{
			{ID: 2, Permissions: Permissions{View: true}},
			{ID: 3, Children: []MenuNode{{ID: 4, Permissions: Permissions{View: true}}}},
		}},
		{ID: 5, Permissions: Permissions{Edit: true}},
	}

	visible := forest.Visible()
	require.Len(t, visible, 1)
	require.Len(t, visible[0].Children, 1)
	assert.Equal(t, int64(2), visible[0].Children[0].ID)
}

func TestDiff(t *testing.T) {
	before := sampleForest()
	after, err := Cascade(before, Path{0, 0}, CapView, true)
	require.NoError(t, err)

	changes := Diff(before, after)
	assert.ElementsMatch(t, []Change{
		{MenuID: 2, Capability: CapView, From: false, To: true},
		{MenuID: 3, Capability: CapView, From: false, To: true},
		{MenuID: 4, Capability: CapView, From: false, To: true},
	}, changes)

	assert.Empty(t, Diff(before, before.Clone()))
}

func TestDiffReportsRemovedMenus(t *testing.T) {
	before := Forest{{ID: 1, Permissions: Permissions{View: true}}, {ID: 2, Permissions: Permissions{Add: true}}}
	after := Forest{{ID: 1, Permissions: Permissions{View: true}}}

	assert.Equal(t, []Change{{MenuID: 2, Capability: CapAdd, From: true, To: false}}, Diff(before, after))
}

func TestParseCapability(t *testing.T) {
	c, err := ParseCapability(" Dashboard ")
	require.NoError(t, err)
	assert.Equal(t, CapDashboard, c)

	_, err = ParseCapability("approve")
	assert.ErrorIs(t, err, ErrUnknownCapability)
}

func TestPermissionsWithIsIndependent(t *testing.T) {
	p := Permissions{}.With(CapAdd, true).With(CapDelete, true)
	assert.Equal(t, Permissions{Add: true, Delete: true}, p)
	assert.True(t, p.Any())
	assert.False(t, Permissions{}.Any())
	assert.Equal(t, p, p.With(Capability("bogus"), true))
}

package rights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadedEditor(t *testing.T) *Editor {
	t.Helper()
	e := NewEditor()
	e.Load("role-a", sampleForest())
	return e
}

func TestEditorDirtyTracking(t *testing.T) {
	e := loadedEditor(t)
	assert.False(t, e.HasChanges(), "fresh load is clean")

	require.NoError(t, e.Toggle(Path{1}, CapAdd, true))
	assert.True(t, e.HasChanges())
	assert.Equal(t, []Change{{MenuID: 6, Capability: CapAdd, From: false, To: true}}, e.Changes())

	e.Reset()
	assert.False(t, e.HasChanges())
	assert.True(t, Equal(e.Saved(), e.Current()))
	assert.True(t, Equal(sampleForest(), e.Current()))
}

func TestEditorToggleBackIsClean(t *testing.T) {
	e := loadedEditor(t)
	require.NoError(t, e.Toggle(Path{0}, CapView, false))
	require.True(t, e.HasChanges())
	require.NoError(t, e.Toggle(Path{0}, CapView, true))
	assert.False(t, e.HasChanges())
}

func TestEditorInvalidPathLeavesStateUntouched(t *testing.T) {
	e := loadedEditor(t)
	before := e.Current()

	assert.ErrorIs(t, e.Toggle(Path{0, 9}, CapView, true), ErrInvalidPath)
	assert.ErrorIs(t, e.Cascade(Path{4}, CapView, true), ErrInvalidPath)
	assert.True(t, Equal(before, e.Current()))
	assert.False(t, e.HasChanges())
}

func TestEditorCurrentIsACopy(t *testing.T) {
	e := loadedEditor(t)
	current := e.Current()
	current[0].Permissions.Delete = true
	assert.False(t, e.HasChanges())
}

func TestEditorMasterStateIsLastAction(t *testing.T) {
	e := loadedEditor(t)
	assert.False(t, e.MasterState(CapView))
	assert.Equal(t, AggregateMixed, e.Aggregate(CapView))

	require.NoError(t, e.SetMaster(CapView, true))
	assert.True(t, e.MasterState(CapView))
	assert.Equal(t, AggregateAll, e.Aggregate(CapView))

	// Individual edits do not feed back into the displayed master state.
	require.NoError(t, e.Toggle(Path{0, 1}, CapView, false))
	assert.True(t, e.MasterState(CapView))
	assert.Equal(t, AggregateMixed, e.Aggregate(CapView))

	require.NoError(t, e.SetMaster(CapView, false))
	assert.False(t, e.MasterState(CapView))
	assert.Equal(t, AggregateNone, e.Aggregate(CapView))

	assert.ErrorIs(t, e.SetMaster(Capability("bogus"), true), ErrUnknownCapability)
}

func TestEditorLoadClearsMasterState(t *testing.T) {
	e := loadedEditor(t)
	require.NoError(t, e.SetMaster(CapEdit, true))
	e.Load("role-b", sampleForest())
	assert.False(t, e.MasterState(CapEdit))
	assert.False(t, e.HasChanges())
	assert.Equal(t, "role-b", e.RoleID())
}

func TestEditorSaveCommit(t *testing.T) {
	e := loadedEditor(t)
	require.NoError(t, e.Cascade(Path{0}, CapDelete, true))

	ticket := e.BeginSave("user-1")
	assert.Equal(t, "role-a", ticket.RoleID)
	assert.Equal(t, "user-1", ticket.Payload.UserID)
	assert.ElementsMatch(t, []int64{1, 2, 3, 4, 5}, ticket.Payload.Rights[CapDelete])

	require.NoError(t, e.CommitSave(ticket))
	assert.False(t, e.HasChanges())
	assert.True(t, Equal(e.Saved(), e.Current()))
}

func TestEditorEditsDuringSaveStayDirty(t *testing.T) {
	e := loadedEditor(t)
	require.NoError(t, e.Toggle(Path{1}, CapView, true))
	ticket := e.BeginSave("u")

	require.NoError(t, e.Toggle(Path{1}, CapEdit, true))
	require.NoError(t, e.CommitSave(ticket))

	assert.True(t, e.HasChanges())
	assert.Equal(t, []Change{{MenuID: 6, Capability: CapEdit, From: false, To: true}}, e.Changes())
}

func TestEditorFailedSaveKeepsEdits(t *testing.T) {
	e := loadedEditor(t)
	require.NoError(t, e.Toggle(Path{1}, CapView, true))
	_ = e.BeginSave("u")

	// The save sink failed: nothing is committed.
	assert.True(t, e.HasChanges())
	node, err := e.Current().NodeAt(Path{1})
	require.NoError(t, err)
	assert.True(t, node.Permissions.View)
}

func TestEditorStaleSaveIsDiscarded(t *testing.T) {
	e := loadedEditor(t)
	require.NoError(t, e.Toggle(Path{1}, CapView, true))
	ticket := e.BeginSave("u")

	other := Forest{{ID: 40, Name: "Skills"}}
	e.Load("role-b", other)
	require.NoError(t, e.Toggle(Path{0}, CapAdd, true))

	assert.ErrorIs(t, e.CommitSave(ticket), ErrStaleSave)
	assert.Equal(t, "role-b", e.RoleID())
	assert.True(t, Equal(other, e.Saved()))
	assert.True(t, e.HasChanges())
}

func TestEditorReloadSameRoleInvalidatesTicket(t *testing.T) {
	e := loadedEditor(t)
	ticket := e.BeginSave("u")
	e.Load("role-a", sampleForest())
	assert.ErrorIs(t, e.CommitSave(ticket), ErrStaleSave)
}

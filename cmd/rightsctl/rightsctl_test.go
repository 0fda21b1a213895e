package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrmrights/internal/domain/rights"
)

func sampleForest() rights.Forest {
	return rights.Forest{
		{ID: 1, Name: "Dashboard", Permissions: rights.Permissions{View: true}},
		{ID: 2, Name: "Employees", Permissions: rights.Permissions{View: true, Edit: true}, Children: []rights.MenuNode{
			{ID: 3, Name: "Directory", Permissions: rights.Permissions{View: true}},
		}},
	}
}

func TestWriteExportJSON(t *testing.T) {
	var buf bytes.Buffer
	role := rights.Role{ID: "r1", Name: "HR"}
	require.NoError(t, writeExport(&buf, "json", role, sampleForest(), time.Now()))

	var got struct {
		Role   rights.Role   `json:"role"`
		Forest rights.Forest `json:"forest"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, role, got.Role)
	assert.True(t, rights.Equal(sampleForest(), got.Forest))
}

func TestWriteExportSource(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeExport(&buf, "source", rights.Role{ID: "r1"}, sampleForest(), time.Now()))

	src, err := rights.DecodeSource(buf.Bytes())
	require.NoError(t, err)
	assert.Len(t, src.Level1, 2)
	assert.Len(t, src.Level2[2], 1)
}

func TestWriteExportPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeExport(&buf, "pdf", rights.Role{Name: "HR"}, sampleForest(), time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestWriteExportUnknownFormat(t *testing.T) {
	assert.False(t, validFormat("xml"))
	assert.Error(t, writeExport(&bytes.Buffer{}, "xml", rights.Role{}, nil, time.Now()))
}

func TestWriteRoles(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRoles(&buf, []rights.Role{{ID: "r1", Name: "HR", Description: "People team"}}, false))
	assert.Contains(t, buf.String(), "ID")
	assert.Contains(t, buf.String(), "People team")

	buf.Reset()
	require.NoError(t, writeRoles(&buf, nil, true))
	assert.JSONEq(t, "[]", buf.String())

	buf.Reset()
	require.NoError(t, writeRoles(&buf, nil, false))
	assert.Equal(t, "No roles found.\n", buf.String())
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"migrate", "seed", "roles", "menus", "export", "warm"} {
		assert.True(t, names[want], want)
	}
}

func TestWriteOutputToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rights.json")
	var stdout bytes.Buffer
	require.NoError(t, writeOutput(path, &stdout, func(w io.Writer) error {
		return writeExport(w, "json", rights.Role{ID: "r1"}, sampleForest(), time.Now())
	}))
	assert.Zero(t, stdout.Len())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"forest"`)

	require.NoError(t, writeOutput("-", &stdout, func(w io.Writer) error {
		_, err := io.WriteString(w, "ok")
		return err
	}))
	assert.Equal(t, "ok", stdout.String())
}

func TestWriteOutputReportsCloseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rights.pdf")
	err := writeOutput(path, io.Discard, func(w io.Writer) error {
		return w.(*os.File).Close()
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closing output")

	writeErr := errors.New("disk full")
	err = writeOutput(filepath.Join(t.TempDir(), "x"), io.Discard, func(io.Writer) error { return writeErr })
	assert.ErrorIs(t, err, writeErr)

	err = writeOutput(filepath.Join(t.TempDir(), "missing", "x"), io.Discard, func(io.Writer) error { return nil })
	assert.ErrorContains(t, err, "creating output")
}

func TestWriteMenus(t *testing.T) {
	menus := []rights.Menu{
		{ID: 1, Level: 1, Key: "leave", Name: "Leave"},
		{ID: 2, ParentID: 1, Level: 2, Key: "leave.requests", Name: "Requests"},
	}
	var buf bytes.Buffer
	require.NoError(t, writeMenus(&buf, menus, false))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "-")
	assert.Contains(t, lines[2], "  leave.requests")

	buf.Reset()
	require.NoError(t, writeMenus(&buf, menus, true))
	var decoded []rights.Menu
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, menus, decoded)

	buf.Reset()
	require.NoError(t, writeMenus(&buf, nil, false))
	assert.Equal(t, "No menus found.\n", buf.String())
}

type fakeWarmer struct {
	invalidated []string
	forests     map[string]rights.Forest
}

func (f *fakeWarmer) Invalidate(_ context.Context, _, roleID string) {
	f.invalidated = append(f.invalidated, roleID)
}

func (f *fakeWarmer) Forest(_ context.Context, _, roleID string) (rights.Forest, error) {
	forest, ok := f.forests[roleID]
	if !ok {
		return nil, rights.ErrRoleNotFound
	}
	return forest, nil
}

func TestWarmRoles(t *testing.T) {
	warmer := &fakeWarmer{forests: map[string]rights.Forest{"hr": sampleForest(), "staff": sampleForest()[:1]}}
	var buf bytes.Buffer

	warmed, err := warmRoles(context.Background(), &buf, warmer, "t1", []string{"hr", "staff"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"hr": 3, "staff": 1}, warmed)
	assert.Equal(t, []string{"hr", "staff"}, warmer.invalidated)
	assert.Contains(t, buf.String(), "hr\t3 menus")

	warmed, err = warmRoles(context.Background(), io.Discard, warmer, "t1", []string{"hr", "ghost", "staff"})
	assert.ErrorIs(t, err, rights.ErrRoleNotFound)
	assert.Equal(t, map[string]int{"hr": 3}, warmed)
}

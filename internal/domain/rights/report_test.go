package rights

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMatrixPDF(t *testing.T) {
	var buf bytes.Buffer
	err := RenderMatrixPDF(&buf, "Rights: HR Admin", sampleForest(), time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)
}

func TestCapabilityLabel(t *testing.T) {
	assert.Equal(t, "Dashboard", capabilityLabel(CapDashboard))
	assert.Equal(t, "", capabilityLabel(""))
}

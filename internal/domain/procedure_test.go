package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProcedureFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantCode    string
		wantVersion int
		wantOK      bool
	}{
		{
			name:        "code with version suffix",
			filename:    "PEP-PRO-1141 V.2.docx",
			wantCode:    "PEP-PRO-1141",
			wantVersion: 2,
			wantOK:      true,
		},
		{
			name:        "code without suffix defaults to version 1",
			filename:    "PEP-PRO-1141.docx",
			wantCode:    "PEP-PRO-1141",
			wantVersion: 1,
			wantOK:      true,
		},
		{
			name:        "multi digit version",
			filename:    "PO-GEN-0007 V.12.docx",
			wantCode:    "PO-GEN-0007",
			wantVersion: 12,
			wantOK:      true,
		},
		{
			name:        "full path is reduced to base name",
			filename:    "/srv/procedures/PEP-PRO-0003 V.4.docx",
			wantCode:    "PEP-PRO-0003",
			wantVersion: 4,
			wantOK:      true,
		},
		{
			name:        "embedded code recovered from noisy stem",
			filename:    "Copia de PEP-PRO-0099 V.3 (final).docx",
			wantCode:    "PEP-PRO-0099",
			wantVersion: 3,
			wantOK:      true,
		},
		{
			name:        "embedded code without suffix",
			filename:    "draft PO-SEG-0012 rev.docx",
			wantCode:    "PO-SEG-0012",
			wantVersion: 1,
			wantOK:      true,
		},
		{
			name:        "no code yields sentinel",
			filename:    "meeting notes.docx",
			wantCode:    SentinelCode,
			wantVersion: 1,
			wantOK:      false,
		},
		{
			name:        "lowercase code is not valid",
			filename:    "pep-pro-1141.docx",
			wantCode:    SentinelCode,
			wantVersion: 1,
			wantOK:      false,
		},
		{
			name:        "zero version falls back to default",
			filename:    "PEP-PRO-1141 V.0.docx",
			wantCode:    "PEP-PRO-1141",
			wantVersion: 1,
			wantOK:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ParseProcedureFilename(tt.filename)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCode, id.Code)
			assert.Equal(t, tt.wantVersion, id.Version)
		})
	}
}

func TestParseProcedureFilenameIsDeterministic(t *testing.T) {
	first, ok := ParseProcedureFilename("PEP-PRO-1141 V.2.docx")
	require.True(t, ok)
	second, ok := ParseProcedureFilename("PEP-PRO-1141 V.2.docx")
	require.True(t, ok)
	assert.Equal(t, first, second)
}

func TestTrackingKey(t *testing.T) {
	id := ProcedureIdentity{Code: "PEP-PRO-1141", Version: 2}
	assert.Equal(t, "PEP-PRO-1141_v2", id.TrackingKey())

	id.Version = 1
	assert.Equal(t, "PEP-PRO-1141_v1", id.TrackingKey())
}

func TestValidCode(t *testing.T) {
	assert.True(t, ValidCode("PEP-PRO-1141"))
	assert.True(t, ValidCode("PO-GEN-0007"))
	assert.False(t, ValidCode("PEP-PRO"))
	assert.False(t, ValidCode("pep-pro-1141"))
	assert.False(t, ValidCode("PEP-PRO-1141 V.2"))
	assert.False(t, ValidCode(""))
}

func TestSentinelIdentity(t *testing.T) {
	id, ok := ParseProcedureFilename("random.docx")
	require.False(t, ok)
	assert.True(t, id.IsSentinel())
	assert.Equal(t, DefaultVersion, id.Version)
}

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"certverify/verification-backend/internal/records"
)

func TestImporterFor(t *testing.T) {
	svc := records.NewService(nil, zap.NewNop())

	for _, tc := range []struct {
		path   string
		format string
	}{
		{"graduates.csv", ""},
		{"GRADUATES.XLSX", ""},
		{"export.dat", "json"},
	} {
		fn, err := importerFor(svc, tc.path, tc.format)
		require.NoError(t, err, tc.path)
		assert.NotNil(t, fn)
	}

	_, err := importerFor(svc, "records.txt", "")
	assert.ErrorContains(t, err, `unsupported record format "txt"`)
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"migrate", "seed-admin", "import-records", "verify"} {
		assert.True(t, names[want], want)
	}
}

package pipeline

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbreukel/BacpacCompatFixer/internal/bacpac"
	"github.com/mbreukel/BacpacCompatFixer/internal/reseal"
)

const (
	dirtyModel = `<?xml version="1.0" encoding="utf-8"?>` + "\n" +
		`<DataSchemaModel>` + "\n" +
		`  <Model>` + "\n" +
		`    <Element Type="SqlTable" Name="[dbo].[orders]"/>` + "\n" +
		`    <XtpIndex Name="[dbo].[hot]"/>` + "\n" +
		`    <Element Type="SqlAvailabilityGroup" Name="[ag1]"/>` + "\n" +
		`  </Model>` + "\n" +
		`</DataSchemaModel>`

	cleanModel = `<?xml version="1.0" encoding="utf-8"?>` + "\n" +
		`<DataSchemaModel>` + "\n" +
		`  <Element Type="SqlTable" Name="[dbo].[orders]"/>` + "\n" +
		`</DataSchemaModel>`

	originWithChecksum = `<?xml version="1.0" encoding="utf-8"?>` + "\n" +
		`<DacOrigin>` + "\n" +
		`  <Checksums>` + "\n" +
		`    <Checksum Uri="/model.xml">STALE</Checksum>` + "\n" +
		`  </Checksums>` + "\n" +
		`</DacOrigin>`

	originWithoutChecksum = `<?xml version="1.0" encoding="utf-8"?>` + "\n" +
		`<DacOrigin><Operation/></DacOrigin>`
)

func buildArchive(t *testing.T, model, origin string) string {
	t.Helper()

	archivePath := filepath.Join(t.TempDir(), "export.bacpac")
	f, err := os.Create(archivePath)
	require.NoError(t, err)

	w := zip.NewWriter(f)
	for _, entry := range []struct {
		name string
		data string
	}{
		{"model.xml", model},
		{"origin.xml", origin},
		{"Data/dbo.Orders/TableData-000.bcp", "row data"},
	} {
		out, err := w.Create(entry.name)
		require.NoError(t, err)
		_, err = out.Write([]byte(entry.data))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return archivePath
}

// bakFiles lists backup files next to the archive.
func bakFiles(t *testing.T, archivePath string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(archivePath), "*.bak"))
	require.NoError(t, err)
	return matches
}

func TestRun_CleansAndReseals(t *testing.T) {
	archivePath := buildArchive(t, dirtyModel, originWithChecksum)

	report, err := Run(context.Background(), Options{ArchivePath: archivePath, Quiet: true})
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.True(t, report.Changed)
	assert.Equal(t, []string{"XtpIndex", "Element"}, report.Removed)
	assert.NotEmpty(t, report.ModelHash)
	assert.NotEmpty(t, report.BackupPath)

	entries, err := bacpac.ReadEntries(archivePath)
	require.NoError(t, err)
	assert.NotContains(t, entries.Model, "XtpIndex")
	assert.NotContains(t, entries.Model, "SqlAvailabilityGroup")
	assert.Contains(t, entries.Model, "SqlTable")

	// The stored checksum matches the model as rewritten.
	assert.Contains(t, entries.Origin, report.ModelHash)
	assert.Equal(t, reseal.ModelHash(entries.Model), report.ModelHash)
	assert.NotContains(t, entries.Origin, "STALE")
}

func TestRun_CreatesBackupBeforeRewriting(t *testing.T) {
	archivePath := buildArchive(t, dirtyModel, originWithChecksum)
	original, err := os.ReadFile(archivePath)
	require.NoError(t, err)

	report, err := Run(context.Background(), Options{ArchivePath: archivePath, Quiet: true})
	require.NoError(t, err)

	backed, err := os.ReadFile(report.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, original, backed)
	assert.True(t, strings.HasSuffix(report.BackupPath, ".bak"))
}

func TestRun_NoBackupFlag(t *testing.T) {
	archivePath := buildArchive(t, dirtyModel, originWithChecksum)

	report, err := Run(context.Background(), Options{ArchivePath: archivePath, NoBackup: true, Quiet: true})
	require.NoError(t, err)

	assert.True(t, report.Changed)
	assert.Empty(t, report.BackupPath)
	assert.Empty(t, bakFiles(t, archivePath))
}

func TestRun_NoChangeLeavesArchiveUntouched(t *testing.T) {
	archivePath := buildArchive(t, cleanModel, originWithChecksum)
	before, err := os.ReadFile(archivePath)
	require.NoError(t, err)

	report, err := Run(context.Background(), Options{ArchivePath: archivePath, Quiet: true})
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.False(t, report.Changed)
	assert.Equal(t, "no changes needed", report.Message)
	assert.Empty(t, bakFiles(t, archivePath))

	after, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRun_OriginWithoutChecksumRecord(t *testing.T) {
	archivePath := buildArchive(t, dirtyModel, originWithoutChecksum)

	report, err := Run(context.Background(), Options{ArchivePath: archivePath, Quiet: true})
	require.NoError(t, err)

	assert.True(t, report.Changed)
	assert.NotEmpty(t, report.ModelHash)

	entries, err := bacpac.ReadEntries(archivePath)
	require.NoError(t, err)
	assert.Contains(t, entries.Origin, "<Operation/>")
}

func TestRun_SecondRunIsNoOp(t *testing.T) {
	archivePath := buildArchive(t, dirtyModel, originWithChecksum)

	first, err := Run(context.Background(), Options{ArchivePath: archivePath, Quiet: true})
	require.NoError(t, err)
	require.True(t, first.Changed)

	second, err := Run(context.Background(), Options{ArchivePath: archivePath, Quiet: true})
	require.NoError(t, err)
	assert.False(t, second.Changed)
}

func TestRun_MissingArchive(t *testing.T) {
	report, err := Run(context.Background(), Options{
		ArchivePath: filepath.Join(t.TempDir(), "absent.bacpac"),
		Quiet:       true,
	})
	require.Error(t, err)
	require.NotNil(t, report)
	assert.False(t, report.Success)
}

func TestRun_EmptyArchivePath(t *testing.T) {
	report, err := Run(context.Background(), Options{Quiet: true})
	require.Error(t, err)
	assert.False(t, report.Success)
	assert.Contains(t, report.Message, "archive path is required")
}

func TestRun_MalformedModel(t *testing.T) {
	archivePath := buildArchive(t, "<DataSchemaModel><broken", originWithChecksum)
	before, err := os.ReadFile(archivePath)
	require.NoError(t, err)

	report, err := Run(context.Background(), Options{ArchivePath: archivePath, Quiet: true})
	require.Error(t, err)
	assert.False(t, report.Success)

	// Failure before the rewrite stage leaves the archive alone.
	after, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Empty(t, bakFiles(t, archivePath))
}

func TestScan_ReportsWithoutModifying(t *testing.T) {
	archivePath := buildArchive(t, dirtyModel, originWithChecksum)
	before, err := os.ReadFile(archivePath)
	require.NoError(t, err)

	report, err := Scan(context.Background(), Options{ArchivePath: archivePath, Quiet: true})
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.True(t, report.Changed)
	assert.Equal(t, "would remove 2 elements", report.Message)
	assert.NotEmpty(t, report.ModelHash)

	after, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Empty(t, bakFiles(t, archivePath))
}

func TestScan_CleanArchive(t *testing.T) {
	archivePath := buildArchive(t, cleanModel, originWithChecksum)

	report, err := Scan(context.Background(), Options{ArchivePath: archivePath, Quiet: true})
	require.NoError(t, err)

	assert.False(t, report.Changed)
	assert.Equal(t, "no changes needed", report.Message)
}

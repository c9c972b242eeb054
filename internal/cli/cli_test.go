package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opicprep/trainer/internal/auth"
	"github.com/opicprep/trainer/internal/config"
	"github.com/opicprep/trainer/internal/entities"
	"github.com/opicprep/trainer/internal/importers"
)

const bankCSV = "level,topic,question_type,style,question,order\n" +
	"intermediate,travel,random,roleplay,Describe your last trip.,11\n" +
	"intermediate,travel,random,roleplay,Ask me three questions about my trip.,12\n" +
	"advanced,music,random,advques,What kind of music do you like?,13\n"

// setupEnv points the commands at a temporary database.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_PATH", filepath.Join(dir, "cli.db"))
	t.Setenv("IMPORT_UPLOAD_DIR", filepath.Join(dir, "uploads"))
	t.Setenv("LOG_MODE", "prod")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("AUTH_BCRYPT_COST", "4")
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	root := NewRootCommand("test")
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestImportCommand(t *testing.T) {
	dir := setupEnv(t)
	file := writeFile(t, dir, "bank.csv", bankCSV)

	out, err := execute("import", "--file", file)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Importing bank.csv (mode row)")
	assert.Contains(t, out, "100%")
	assert.Contains(t, out, "Finished with status success")
	assert.Contains(t, out, "Inserted: 3  Duplicates: 0")

	out, err = execute("import", "--file", file)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Inserted: 0  Duplicates: 3")
}

func TestImportCommand_DryRun(t *testing.T) {
	dir := setupEnv(t)
	file := writeFile(t, dir, "bank.csv", bankCSV)

	out, err := execute("import", "--file", file, "--dry-run")
	require.NoError(t, err, out)
	assert.Contains(t, out, "DRY RUN MODE")
	assert.Contains(t, out, "Would insert: 3")

	out, err = execute("import", "--file", file, "--mode", "batch")
	require.NoError(t, err, out)
	assert.Contains(t, out, "batch size 50")
	assert.Contains(t, out, "Inserted: 3")
}

func TestImportCommand_Failures(t *testing.T) {
	dir := setupEnv(t)

	_, err := execute("import")
	assert.ErrorContains(t, err, `required flag(s) "file" not set`)

	_, err = execute("import", "--file", filepath.Join(dir, "missing.csv"))
	assert.ErrorContains(t, err, "failed to read")

	bad := writeFile(t, dir, "bad.csv", "level,topic\nintermediate,travel\n")
	out, err := execute("import", "--file", bad)
	assert.ErrorIs(t, err, importers.ErrMissingColumns)
	assert.Contains(t, out, "Finished with status error")

	notes := writeFile(t, dir, "notes.txt", "hello")
	_, err = execute("import", "--file", notes)
	assert.ErrorIs(t, err, importers.ErrUnsupportedFormat)

	file := writeFile(t, dir, "bank.csv", bankCSV)
	_, err = execute("import", "--file", file, "--mode", "bulk")
	assert.ErrorIs(t, err, importers.ErrInvalidOptions)
}

func TestImportCommand_Options(t *testing.T) {
	cfg := config.Import{Mode: "row", BatchSize: 50, SkipDuplicates: true, ComboKeyPolicy: "auto"}

	opts, err := (&ImportCommand{}).Options(cfg)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportModeRow, opts.Mode)
	assert.True(t, opts.SkipDuplicates)
	assert.Equal(t, importers.PolicyAuto, opts.ComboKeyPolicy)

	opts, err = (&ImportCommand{
		Mode:            "BATCH",
		BatchSize:       500,
		AllowDuplicates: true,
		ComboKeyPolicy:  "derived",
		DryRun:          true,
	}).Options(cfg)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportModeBatch, opts.Mode)
	assert.Equal(t, config.MaxImportBatchSize, opts.BatchSize)
	assert.False(t, opts.SkipDuplicates)
	assert.Equal(t, importers.PolicyDerived, opts.ComboKeyPolicy)
	assert.True(t, opts.DryRun)

	_, err = (&ImportCommand{ComboKeyPolicy: "guess"}).Options(cfg)
	assert.ErrorIs(t, err, importers.ErrInvalidOptions)
}

func TestClearQuestionsCommand(t *testing.T) {
	dir := setupEnv(t)
	file := writeFile(t, dir, "bank.csv", bankCSV)
	_, err := execute("import", "--file", file)
	require.NoError(t, err)

	_, err = execute("clear-questions")
	assert.ErrorIs(t, err, errNotConfirmed)

	out, err := execute("clear-questions", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 3 questions")

	out, err = execute("import", "--file", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Inserted: 3")
}

func TestCreateAdminCommand(t *testing.T) {
	setupEnv(t)
	args := []string{"create-admin", "--username", "admin", "--email", "admin@example.com", "--password", "password12345"}

	out, err := execute(args...)
	require.NoError(t, err)
	assert.Contains(t, out, `Created admin "admin"`)

	_, err = execute(args...)
	assert.ErrorIs(t, err, auth.ErrUserExists)

	_, err = execute("create-admin", "--username", "other", "--email", "other@example.com", "--password", "short")
	assert.ErrorIs(t, err, auth.ErrPasswordTooShort)
}

package imports

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/opicprep/trainer/internal/entities"
	"github.com/opicprep/trainer/internal/importers"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "imports.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.ImportRun{}, &entities.Question{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return NewRepository(db), db
}

func TestRepository_Lifecycle(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	run, err := repo.CreateRun(ctx, 7, "bank.csv", entities.ImportModeRow)
	require.NoError(t, err)
	assert.Len(t, run.ID, 36)
	assert.Equal(t, entities.ImportStatusIdle, run.Status)

	require.NoError(t, repo.StartRun(ctx, run.ID))

	counts := entities.ImportCounts{Total: 4, Inserted: 2}
	require.NoError(t, repo.UpdateProgress(ctx, run.ID, 50, counts))

	got, err := repo.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportStatusProcessing, got.Status)
	assert.Equal(t, 50, got.Percent)
	assert.Equal(t, 2, got.Inserted)
	assert.NotNil(t, got.StartedAt)

	t.Run("progress never goes backwards", func(t *testing.T) {
		require.NoError(t, repo.UpdateProgress(ctx, run.ID, 25, counts))
		got, err := repo.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, 50, got.Percent)
	})

	counts = entities.ImportCounts{Total: 4, Inserted: 3, Skipped: 1}
	require.NoError(t, repo.CompleteRun(ctx, run.ID, entities.ImportStatusSuccess, counts, "imported 3 of 4 rows"))

	got, err = repo.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportStatusSuccess, got.Status)
	assert.Equal(t, 100, got.Percent)
	assert.Equal(t, 1, got.Skipped)
	assert.Equal(t, "imported 3 of 4 rows", got.Message)
	assert.NotNil(t, got.CompletedAt)

	t.Run("finished run cannot restart without reset", func(t *testing.T) {
		assert.ErrorIs(t, repo.StartRun(ctx, run.ID), importers.ErrInvalidTransition)
	})

	reset, err := repo.ResetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportStatusIdle, reset.Status)
	assert.Zero(t, reset.Inserted)
	assert.Zero(t, reset.Percent)
	assert.Nil(t, reset.CompletedAt)

	prepared, err := repo.PrepareRun(ctx, run.ID, "next.xlsx", entities.ImportModeBatch)
	require.NoError(t, err)
	assert.Equal(t, run.ID, prepared.ID)
	require.NoError(t, repo.StartRun(ctx, run.ID))
}

func TestRepository_InvalidTransitions(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	run, err := repo.CreateRun(ctx, 0, "bank.csv", entities.ImportModeRow)
	require.NoError(t, err)

	assert.ErrorIs(t, repo.CompleteRun(ctx, run.ID, entities.ImportStatusSuccess, entities.ImportCounts{}, ""), importers.ErrInvalidTransition)
	_, err = repo.ResetRun(ctx, run.ID)
	assert.ErrorIs(t, err, importers.ErrInvalidTransition)

	require.NoError(t, repo.StartRun(ctx, run.ID))
	_, err = repo.PrepareRun(ctx, run.ID, "other.csv", entities.ImportModeRow)
	assert.ErrorIs(t, err, importers.ErrInvalidTransition)

	require.NoError(t, repo.CompleteRun(ctx, run.ID, entities.ImportStatusError, entities.ImportCounts{}, "import failed: boom"))
	got, err := repo.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "import failed: boom", got.Error)

	_, err = repo.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRepository_FailStaleRuns(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()

	stale, err := repo.CreateRun(ctx, 0, "a.csv", entities.ImportModeRow)
	require.NoError(t, err)
	require.NoError(t, repo.StartRun(ctx, stale.ID))
	require.NoError(t, db.Model(&entities.ImportRun{}).Where("id = ?", stale.ID).
		UpdateColumn("updated_at", time.Now().Add(-time.Hour)).Error)

	fresh, err := repo.CreateRun(ctx, 0, "b.csv", entities.ImportModeRow)
	require.NoError(t, err)
	require.NoError(t, repo.StartRun(ctx, fresh.ID))

	n, err := repo.FailStaleRuns(ctx, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.GetRun(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportStatusError, got.Status)

	got, err = repo.GetRun(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportStatusProcessing, got.Status)
}

func TestRepository_ListRuns(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	for i, user := range []uint{1, 1, 2} {
		_, err := repo.CreateRun(ctx, user, "f.csv", entities.ImportModeRow)
		require.NoError(t, err, i)
	}

	runs, total, err := repo.ListRuns(ctx, 1, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, runs, 2)

	_, total, err = repo.ListRuns(ctx, 0, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestRepository_WithPipeline(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	run, err := repo.CreateRun(ctx, 0, "bank.csv", entities.ImportModeRow)
	require.NoError(t, err)

	body := "level,topic,question_type,style,question,order\n" +
		"intermediate,food,random,describing,\"What is your favorite dish, and why?\",3\n" +
		"advanced,food,habit,describing,Bad order,zero\n"

	report, err := importers.NewPipeline(nopStore{}, nil, repo).Run(ctx,
		importers.Upload{FileName: "bank.csv", Content: []byte(body)},
		importers.Options{RunID: run.ID})
	require.NoError(t, err)

	got, err := repo.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportStatusSuccess, got.Status)
	assert.Equal(t, report.Message, got.Message)
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 1, got.Inserted)
	assert.Equal(t, 1, got.Skipped)
}

type nopStore struct{}

func (nopStore) ExistingKeys(context.Context) ([]entities.QuestionKey, error) { return nil, nil }
func (nopStore) InsertQuestion(context.Context, *entities.Question) (bool, error) {
	return true, nil
}
func (nopStore) InsertQuestions(_ context.Context, qs []entities.Question) (int, error) {
	return len(qs), nil
}

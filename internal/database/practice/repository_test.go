package practice

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/opicprep/trainer/internal/entities"
)

func TestRepository_CreateAndList(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "practice.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Question{}, &entities.PracticeAttempt{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	q := entities.Question{Level: entities.LevelAdvanced, Topic: "food", QuestionType: "habit", Style: "describing", Order: 1, Text: "What do you cook?"}
	require.NoError(t, db.Create(&q).Error)

	repo := NewRepository(db)
	ctx := context.Background()
	for _, text := range []string{"first answer", "second answer"} {
		require.NoError(t, repo.Create(ctx, &entities.PracticeAttempt{UserID: 3, QuestionID: q.ID, Transcript: text, DurationSeconds: 60}))
	}
	require.NoError(t, repo.Create(ctx, &entities.PracticeAttempt{UserID: 4, QuestionID: q.ID, Transcript: "other user"}))

	attempts, total, err := repo.ListForUser(ctx, 3, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, attempts, 2)
	assert.Equal(t, "second answer", attempts[0].Transcript)
	assert.Equal(t, "What do you cook?", attempts[0].Question.Text)
}

package entities

import "time"

// PracticeAttempt is one recorded answer to a question.
type PracticeAttempt struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"index" json:"user_id"`
	QuestionID      uint      `gorm:"index" json:"question_id"`
	Question        Question  `gorm:"foreignKey:QuestionID" json:"-"`
	Transcript      string    `gorm:"type:text" json:"transcript"`
	DurationSeconds int       `json:"duration_seconds"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
}

func (PracticeAttempt) TableName() string {
	return "practice_attempts"
}

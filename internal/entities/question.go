package entities

import (
	"fmt"
	"time"
)

type Level string

const (
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Valid reports whether l is one of the two supported exam levels.
func (l Level) Valid() bool {
	return l == LevelIntermediate || l == LevelAdvanced
}

// Question types and styles that carry meaning for the importer.
const (
	QuestionTypeRandom = "random"

	StyleRoleplay = "roleplay"
	StyleAdvQues  = "advques"
)

// Question is a single practice prompt. The natural key (level, topic, style,
// order, question) is unique so concurrent imports cannot double-insert.
type Question struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Level        Level     `gorm:"size:20;not null;uniqueIndex:idx_questions_natural_key,priority:1;index:idx_questions_browse,priority:1" json:"level"`
	Topic        string    `gorm:"size:255;not null;uniqueIndex:idx_questions_natural_key,priority:2;index:idx_questions_browse,priority:2" json:"topic"`
	QuestionType string    `gorm:"size:50;not null" json:"question_type"`
	Style        string    `gorm:"size:50;not null;uniqueIndex:idx_questions_natural_key,priority:3;index:idx_questions_browse,priority:3" json:"style"`
	Order        int       `gorm:"column:order_no;not null;uniqueIndex:idx_questions_natural_key,priority:4" json:"order"`
	Text         string    `gorm:"column:question;type:text;not null;uniqueIndex:idx_questions_natural_key,priority:5" json:"question"`
	IsRandom     bool      `gorm:"not null;default:false" json:"is_random"`
	ComboKey     *string   `gorm:"size:255;index" json:"combo_key"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Question) TableName() string {
	return "questions"
}

// Key returns the duplicate-detection key of the question.
func (q Question) Key() QuestionKey {
	return QuestionKey{Level: q.Level, Topic: q.Topic, Style: q.Style, Order: q.Order, Text: q.Text}
}

// QuestionKey identifies a question for duplicate detection.
type QuestionKey struct {
	Level Level
	Topic string
	Style string
	Order int
	Text  string
}

func (k QuestionKey) String() string {
	return fmt.Sprintf("%s|%s|%s|%d|%s", k.Level, k.Topic, k.Style, k.Order, k.Text)
}

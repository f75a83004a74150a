package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty accepts any casing; an empty string means "unset".
func ParseDifficulty(s string) (Difficulty, bool) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case "", DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, true
	default:
		return "", false
	}
}

// Problem is one entry of a lineage: either the original solve or a revision
// pointing back at it through OriginalProblemID.
type Problem struct {
	ID    string `gorm:"primaryKey;type:text" json:"id"`
	Owner string `gorm:"column:uid;type:text;not null;index:idx_problems_owner_solved,priority:1" json:"uid"`

	ProblemText string                      `gorm:"column:problem;type:text;not null" json:"problem"`
	Difficulty  Difficulty                  `gorm:"type:text" json:"difficulty,omitempty"`
	Platform    string                      `gorm:"type:text" json:"platform,omitempty"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`

	LastSolvedAt time.Time `gorm:"not null;index:idx_problems_owner_solved,priority:2,sort:desc" json:"lastSolvedAt"`
	CreatedAt    time.Time `gorm:"not null" json:"createdAt"`

	SolveCount        int     `gorm:"not null" json:"solveCount"`
	IsRevision        bool    `gorm:"not null" json:"isRevision"`
	OriginalProblemID *string `gorm:"type:text;index" json:"originalProblemId"`
}

func (Problem) TableName() string {
	return "problems"
}

func (p *Problem) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// IsLink reports whether the problem text is a URL rather than a title.
func (p Problem) IsLink() bool {
	return strings.HasPrefix(p.ProblemText, "http")
}

// Clone returns a deep copy; Tags and OriginalProblemID are not shared.
func (p Problem) Clone() Problem {
	if p.Tags != nil {
		p.Tags = append(datatypes.JSONSlice[string]{}, p.Tags...)
	}
	if p.OriginalProblemID != nil {
		id := *p.OriginalProblemID
		p.OriginalProblemID = &id
	}
	return p
}

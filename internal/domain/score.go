package domain

import (
	"encoding/json"
	"time"
)

const (
	ScoreMin      = 0
	ScoreMax      = 10
	ScoreVersion  = "1.0"
	ScorePlatform = "AthenaForge"
)

// Score is a judge's evaluation of one project
type Score struct {
	ID             string             `json:"id"`
	ProjectID      string             `json:"projectId"`
	JudgeID        string             `json:"judgeId"`
	Scores         map[string]float64 `json:"scores"`
	Feedback       string             `json:"feedback"`
	PrivateNotes   string             `json:"privateNotes"`
	TotalScore     float64            `json:"totalScore"`
	CriteriaScores []json.RawMessage  `json:"criteriaScores"`
	IsDraft        bool               `json:"isDraft"`
	SubmittedAt    time.Time          `json:"submittedAt"`
	IPFSHash       string             `json:"ipfsHash"`
	Version        string             `json:"version"`
	Platform       string             `json:"platform"`
	JudgeSignature string             `json:"judgeSignature"`
}

// CreateScoreRequest is the body of a score submission. Scores are decoded
// raw so that non-numeric values can be reported per criterion.
type CreateScoreRequest struct {
	ProjectID      string                     `json:"projectId"`
	JudgeID        string                     `json:"judgeId"`
	Scores         map[string]json.RawMessage `json:"scores"`
	Feedback       string                     `json:"feedback"`
	PrivateNotes   string                     `json:"privateNotes"`
	TotalScore     float64                    `json:"totalScore"`
	CriteriaScores []json.RawMessage          `json:"criteriaScores"`
	IsDraft        bool                       `json:"isDraft"`
}

// ScoreSummary is the public part of a create response
type ScoreSummary struct {
	JudgeID     string    `json:"judgeId"`
	Criteria    string    `json:"criteria"`
	Score       float64   `json:"score"`
	Feedback    string    `json:"feedback"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// ScoreMetadata is the judge-side part of a create response
type ScoreMetadata struct {
	ID             string             `json:"id"`
	ProjectID      string             `json:"projectId"`
	Scores         map[string]float64 `json:"scores"`
	PrivateNotes   string             `json:"privateNotes"`
	IsDraft        bool               `json:"isDraft"`
	CriteriaScores []json.RawMessage  `json:"criteriaScores"`
}

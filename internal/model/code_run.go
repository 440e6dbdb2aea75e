package model

import (
	"time"

	"github.com/google/uuid"
)

// CodeRun records one execution request sent to the remote runner.
type CodeRun struct {
	ID           uuid.UUID `json:"id"`
	ProblemDocID string    `json:"problem_doc_id"`
	UserID       uuid.UUID `json:"user_id"`
	Language     Language  `json:"language"`
	Succeeded    bool      `json:"succeeded"`
	Output       string    `json:"output"`
	CreatedAt    time.Time `json:"created_at"`
}

// RunCodeRequest is the editor's run payload.
type RunCodeRequest struct {
	Language string `json:"language" binding:"required,code_language"`
	Code     string `json:"code" binding:"max=65536"`
	Input    string `json:"input" binding:"max=65536"`
}

// RunResult is what the editor shows after a run.
type RunResult struct {
	Language Language `json:"language"`
	Output   string   `json:"output"`
	IsError  bool     `json:"is_error"`
}

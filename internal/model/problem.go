package model

import (
	"time"
)

// Problem is one coding problem in the leetcodequestions collection.
// Text fields hold decoded (plain) values; encoding happens at the store boundary.
type Problem struct {
	DocID       string     `json:"doc_id"`
	ID          *int       `json:"id"`
	Title       string     `json:"title"`
	Topic       Topic      `json:"topic"`
	Description string     `json:"description"`
	Difficulty  Difficulty `json:"difficulty"`
	Constraints string     `json:"constraints"`
	Examples    []Example  `json:"examples"`
	SampleCode  SampleCode `json:"sample_code"`
	CreatedBy   string     `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// SeqID returns the user-facing id and whether it is set.
func (p *Problem) SeqID() (int, bool) {
	if p.ID == nil {
		return 0, false
	}
	return *p.ID, true
}

// HasSeqID reports whether the user-facing id equals n.
func (p *Problem) HasSeqID(n int) bool {
	id, ok := p.SeqID()
	return ok && id == n
}

// IntPtr is a helper for building optional ids.
func IntPtr(n int) *int {
	return &n
}

// Example is one worked example; the order of Problem.Examples is the display order.
type Example struct {
	Input       string `json:"input"`
	Output      string `json:"output"`
	Explanation string `json:"explanation"`
}

// Difficulty is the level string "1".."4".
type Difficulty string

const (
	DifficultyLevel1 Difficulty = "1"
	DifficultyLevel2 Difficulty = "2"
	DifficultyLevel3 Difficulty = "3"
	DifficultyLevel4 Difficulty = "4"
)

// Difficulties lists every valid level in display order.
var Difficulties = []Difficulty{DifficultyLevel1, DifficultyLevel2, DifficultyLevel3, DifficultyLevel4}

// Valid reports whether d is one of the four levels.
func (d Difficulty) Valid() bool {
	for _, v := range Difficulties {
		if v == d {
			return true
		}
	}
	return false
}

// Topic is one of the fixed problem categories.
type Topic string

// Topics is the closed list of categories offered by the problem forms.
var Topics = []Topic{
	"Array",
	"Linked List",
	"Binary Search",
	"Greedy Algorithm",
	"Recursion and Backtracking",
	"Stack & Queue",
	"String",
	"Binary Tree",
	"Dynamic Programming",
	"Graph",
	"Hash Table",
	"Heap",
	"Sorting",
	"Math",
	"Bit Manipulation",
	"Two Pointers",
	"Sliding Window",
}

// Valid reports whether t is in Topics.
func (t Topic) Valid() bool {
	for _, v := range Topics {
		if v == t {
			return true
		}
	}
	return false
}

// ProblemPatch is a partial update; nil fields are left untouched.
type ProblemPatch struct {
	ID          *int
	Title       *string
	Topic       *Topic
	Description *string
	Difficulty  *Difficulty
	Constraints *string
	Examples    *[]Example
	SampleCode  *SampleCode
}

// Empty reports whether the patch changes nothing.
func (p ProblemPatch) Empty() bool {
	return p.ID == nil && p.Title == nil && p.Topic == nil && p.Description == nil &&
		p.Difficulty == nil && p.Constraints == nil && p.Examples == nil && p.SampleCode == nil
}

// ProblemFilter narrows the problem list view.
type ProblemFilter struct {
	Search     string
	Topic      Topic
	Difficulty Difficulty
}

// ExampleRequest is one example in a create or update payload.
type ExampleRequest struct {
	Input       string `json:"input" binding:"max=2000"`
	Output      string `json:"output" binding:"max=2000"`
	Explanation string `json:"explanation" binding:"max=4000"`
}

// SampleCodeRequest carries the starter code for each supported language.
type SampleCodeRequest struct {
	C      string `json:"c" binding:"max=20000"`
	CPP    string `json:"cpp" binding:"max=20000"`
	Java   string `json:"java" binding:"max=20000"`
	Python string `json:"python" binding:"max=20000"`
}

// CreateProblemRequest is the payload for authoring a problem.
// The user-facing id is assigned by the server.
type CreateProblemRequest struct {
	Title       string            `json:"title" binding:"required,min=1,max=200"`
	Topic       string            `json:"topic" binding:"required,problem_topic"`
	Description string            `json:"description" binding:"max=20000"`
	Difficulty  string            `json:"difficulty" binding:"required,problem_difficulty"`
	Constraints string            `json:"constraints" binding:"max=5000"`
	Examples    []ExampleRequest  `json:"examples" binding:"max=20,dive"`
	SampleCode  SampleCodeRequest `json:"sample_code"`
}

// UpdateProblemRequest is the admin edit payload. ID is the requested user-facing id.
type UpdateProblemRequest struct {
	ID          int               `json:"id" binding:"required,min=1"`
	Title       string            `json:"title" binding:"required,min=1,max=200"`
	Topic       string            `json:"topic" binding:"required,problem_topic"`
	Description string            `json:"description" binding:"max=20000"`
	Difficulty  string            `json:"difficulty" binding:"required,problem_difficulty"`
	Constraints string            `json:"constraints" binding:"max=5000"`
	Examples    []ExampleRequest  `json:"examples" binding:"max=20,dive"`
	SampleCode  SampleCodeRequest `json:"sample_code"`
}

// ProblemInput is the validated field set shared by create and update.
type ProblemInput struct {
	ID          int
	Title       string
	Topic       Topic
	Description string
	Difficulty  Difficulty
	Constraints string
	Examples    []Example
	SampleCode  SampleCode
}

// ToInput converts the create payload into service input.
func (r *CreateProblemRequest) ToInput() ProblemInput {
	return ProblemInput{
		Title:       r.Title,
		Topic:       Topic(r.Topic),
		Description: r.Description,
		Difficulty:  Difficulty(r.Difficulty),
		Constraints: r.Constraints,
		Examples:    examplesFromRequest(r.Examples),
		SampleCode:  r.SampleCode.toSampleCode(),
	}
}

// ToInput converts the update payload into service input.
func (r *UpdateProblemRequest) ToInput() ProblemInput {
	return ProblemInput{
		ID:          r.ID,
		Title:       r.Title,
		Topic:       Topic(r.Topic),
		Description: r.Description,
		Difficulty:  Difficulty(r.Difficulty),
		Constraints: r.Constraints,
		Examples:    examplesFromRequest(r.Examples),
		SampleCode:  r.SampleCode.toSampleCode(),
	}
}

func examplesFromRequest(in []ExampleRequest) []Example {
	out := make([]Example, 0, len(in))
	for _, e := range in {
		out = append(out, Example{Input: e.Input, Output: e.Output, Explanation: e.Explanation})
	}
	return out
}

func (r SampleCodeRequest) toSampleCode() SampleCode {
	return SampleCode{C: r.C, CPP: r.CPP, Java: r.Java, Python: r.Python}
}

package main

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/codepractice/codepractice-backend/internal/model"
	"github.com/codepractice/codepractice-backend/internal/textcodec"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// exportedProblem is one document from a collection export. Text fields
// may still be base64 encoded and id may be a number, a string or absent.
type exportedProblem struct {
	ID          json.RawMessage `json:"id"`
	Title       string          `json:"title"`
	Topic       string          `json:"topic"`
	Description string          `json:"description"`
	Difficulty  json.RawMessage `json:"difficulty"`
	Constraints string          `json:"constraints"`
	Examples    []model.Example `json:"examples"`
	SampleCode  struct {
		C      string `json:"c"`
		CPP    string `json:"cpp"`
		Java   string `json:"java"`
		Python string `json:"python"`
	} `json:"sampleCode"`
}

// parseExport decodes a JSON array of exported documents and returns them in
// sequence order. Documents with a numeric id, including zero, negative and
// fractional ones, are ranked by that number and renumbered 1..m. The rest
// keep no id and follow, ordered by title.
func parseExport(raw []byte) ([]model.Problem, error) {
	var docs []exportedProblem
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("parse export: %w", err)
	}

	type keyed struct {
		p      model.Problem
		key    float64
		hasKey bool
	}
	rows := make([]keyed, 0, len(docs))
	for _, d := range docs {
		key, ok := seqKey(d.ID)
		rows = append(rows, keyed{p: d.toProblem(), key: key, hasKey: ok})
	}

	coll := collate.New(language.English)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch {
		case a.hasKey && !b.hasKey:
			return true
		case !a.hasKey && b.hasKey:
			return false
		case a.hasKey && b.hasKey && a.key != b.key:
			return a.key < b.key
		}
		return coll.CompareString(a.p.Title, b.p.Title) < 0
	})

	out := make([]model.Problem, 0, len(rows))
	for i, r := range rows {
		if r.hasKey {
			r.p.ID = model.IntPtr(i + 1)
		}
		out = append(out, r.p)
	}
	return out, nil
}

func (d exportedProblem) toProblem() model.Problem {
	examples := d.Examples
	if examples == nil {
		examples = []model.Example{}
	}
	return model.Problem{
		Title:       strings.TrimSpace(d.Title),
		Topic:       model.Topic(d.Topic),
		Description: d.Description,
		Difficulty:  model.Difficulty(rawScalar(d.Difficulty)),
		Constraints: textcodec.DecodeOrRaw(d.Constraints),
		Examples:    examples,
		SampleCode: model.SampleCode{
			C:      textcodec.DecodeOrRaw(d.SampleCode.C),
			CPP:    textcodec.DecodeOrRaw(d.SampleCode.CPP),
			Java:   textcodec.DecodeOrRaw(d.SampleCode.Java),
			Python: textcodec.DecodeOrRaw(d.SampleCode.Python),
		},
	}
}

// seqKey reads an id given as a JSON number or numeric string. Text,
// booleans, null and non-finite values have no key.
func seqKey(raw json.RawMessage) (float64, bool) {
	s := rawScalar(raw)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// rawScalar returns a JSON number or string as trimmed text, "" otherwise.
func rawScalar(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// Package generate builds LLM prompts for question generation and parses the
// model's JSON replies into domain questions.
package generate

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"question-bank-service/internal/domain/model"
	"question-bank-service/internal/domain/ports/adapter"
)

const systemInstruction = `You are an assessment-item author for a learning platform.
You write exam questions strictly grounded in the source passages you are given.
Reply with a single JSON object and nothing else.`

var promptTmpl = template.Must(template.New("generate").Parse(`Generate exactly {{.Total}} exam questions from the source passages below.

Required mix:
{{- range .Mix}}
- {{.}}
{{- end}}
{{- if .Objectives}}

Target these learning objectives:
{{- range .Objectives}}
- {{.}}
{{- end}}
{{- end}}

Rules:
- Every question must be answerable from the passages alone.
- For "mcq" provide exactly 4 options and set answer_key to the correct option text.
- For "tf" set answer_key to "true" or "false".
- For "fib" mark the blank with ____ in the stem and set answer_key to the missing text.
- Set source_passage_id to the id of the passage the question is drawn from.

Reply with JSON of the shape:
{"questions":[{"type":"mcq|fib|tf","stem":"...","options":["..."],"answer_key":"...","explanation":"...","difficulty":"easy|medium|hard","blooms_level":"remember|understand|apply|analyze|evaluate|create","source_passage_id":"..."}]}

Source passages:
{{- range .Passages}}

[passage id={{.ID}}{{if .Chapter}} chapter={{.Chapter}}{{end}}]
{{.Text}}
{{- end}}
`))

type promptData struct {
	Total      int
	Mix        []string
	Objectives []string
	Passages   []adapter.Passage
}

// BuildMessages renders the chat messages for one generation run.
func BuildMessages(params model.GenerationParams, passages []adapter.Passage) ([]adapter.Message, error) {
	data := promptData{
		Total:      params.TotalQuestions,
		Mix:        describeMix(params),
		Objectives: params.LearningObjectives,
		Passages:   passages,
	}

	var sb strings.Builder
	if err := promptTmpl.Execute(&sb, data); err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	return []adapter.Message{
		{Role: "system", Content: systemInstruction},
		{Role: "user", Content: sb.String()},
	}, nil
}

// describeMix turns the distribution maps into deterministic prompt lines.
// Keys are sorted so the same params always render the same prompt.
func describeMix(params model.GenerationParams) []string {
	var out []string
	out = append(out, distLines(params.TypeDistribution, "question")...)
	out = append(out, distLines(params.DifficultyDistribution, "difficulty")...)
	out = append(out, distLines(params.BloomsDistribution, "Bloom's level")...)
	return out
}

func distLines(dist map[string]int, kind string) []string {
	keys := make([]string, 0, len(dist))
	for k := range dist {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		n := dist[k]
		if n <= 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%d of %s %q", n, kind, k))
	}
	return lines
}

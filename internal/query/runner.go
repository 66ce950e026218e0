// Package query asks one question of a chat model once per serialized
// table, using each serialization as the conversation context.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/tableqa/internal/formats"
	"github.com/jackzampolin/tableqa/internal/llmcall"
	"github.com/jackzampolin/tableqa/internal/providers"
)

// Policy decides what happens when one format's request fails.
type Policy string

const (
	// FailFast aborts the run on the first failed request.
	FailFast Policy = "fail-fast"
	// Continue records the failure on the answer and moves on.
	Continue Policy = "continue"
)

// ParsePolicy validates a policy name. Empty means FailFast.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case FailFast, "":
		return FailFast, nil
	case Continue:
		return Continue, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q (want %q or %q)", s, FailFast, Continue)
	}
}

// ErrNoQuestion is returned when Run is called with a blank question.
var ErrNoQuestion = errors.New("question is empty")

// Error reports the format whose request failed.
type Error struct {
	Format formats.Format
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("query %s: %v", e.Format, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// AnswerRecord is one format's answer to the question.
type AnswerRecord struct {
	Table    string         `json:"table,omitempty" yaml:"table,omitempty"`
	Format   formats.Format `json:"format" yaml:"format"`
	Question string         `json:"question" yaml:"question"`
	Answer   string         `json:"answer" yaml:"answer"`
	Error    string         `json:"error,omitempty" yaml:"error,omitempty"`

	Context string `json:"-" yaml:"-"`

	Model            string `json:"model,omitempty" yaml:"model,omitempty"`
	PromptTokens     int    `json:"prompt_tokens,omitempty" yaml:"prompt_tokens,omitempty"`
	CompletionTokens int    `json:"completion_tokens,omitempty" yaml:"completion_tokens,omitempty"`
	LatencyMs        int64  `json:"latency_ms,omitempty" yaml:"latency_ms,omitempty"`
}

// Runner issues the chat calls. The zero value is not usable; Client is required.
type Runner struct {
	Client       providers.LLMClient
	Model        string
	SystemPrompt string   // defaults to SystemPrompt()
	Temperature  *float64 // nil leaves the service default
	MaxTokens    int
	Policy       Policy
	Logger       *slog.Logger

	// Recorder, when set, receives every call tagged with RunID.
	Recorder *llmcall.Recorder
	RunID    string
}

// Run asks question once per record, sequentially and in record order.
// The returned answers line up one-to-one with records, except that a
// FailFast run stops at the first failure and returns the answers so far
// together with an *Error.
func (r *Runner) Run(ctx context.Context, question string, records []formats.Record) ([]AnswerRecord, error) {
	return r.RunTable(ctx, "", question, records)
}

// RunTable is Run with answers labelled by the table they came from.
func (r *Runner) RunTable(ctx context.Context, label, question string, records []formats.Record) ([]AnswerRecord, error) {
	if r.Client == nil {
		return nil, errors.New("query runner has no client")
	}
	if strings.TrimSpace(question) == "" {
		return nil, ErrNoQuestion
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	system := r.SystemPrompt
	if system == "" {
		system = SystemPrompt()
	}

	answers := make([]AnswerRecord, 0, len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return answers, &Error{Format: rec.Format, Err: err}
		}

		text := rec.Text()
		ans := AnswerRecord{
			Table:    label,
			Format:   rec.Format,
			Question: question,
			Context:  text,
			Model:    r.Model,
		}

		start := time.Now()
		result, err := r.Client.Chat(ctx, &providers.ChatRequest{
			Model: r.Model,
			Messages: []providers.Message{
				{Role: providers.RoleSystem, Content: system},
				{Role: providers.RoleUser, Content: question},
				{Role: providers.RoleAssistant, Content: text},
			},
			Temperature: r.Temperature,
			MaxTokens:   r.MaxTokens,
			RequestID:   uuid.New().String(),
		})
		ans.LatencyMs = time.Since(start).Milliseconds()
		r.record(result, err, label, rec.Format, question, text)

		if err != nil {
			if r.Policy != Continue || ctx.Err() != nil {
				return answers, &Error{Format: rec.Format, Err: err}
			}
			logger.Warn("query failed, continuing", "format", rec.Format, "table", label, "error", err)
			ans.Error = err.Error()
			answers = append(answers, ans)
			continue
		}

		ans.Answer = result.Content
		if result.ModelUsed != "" {
			ans.Model = result.ModelUsed
		}
		ans.PromptTokens = result.PromptTokens
		ans.CompletionTokens = result.CompletionTokens
		logger.Info("answered", "format", rec.Format, "table", label,
			"tokens", result.TotalTokens, "latency_ms", ans.LatencyMs)
		answers = append(answers, ans)
	}
	return answers, nil
}

func (r *Runner) record(result *providers.ChatResult, err error, label string, f formats.Format, question, text string) {
	if r.Recorder == nil {
		return
	}
	if result == nil {
		result = &providers.ChatResult{Provider: r.Client.Name(), ModelUsed: r.Model}
	}
	if err != nil && result.ErrorMessage == "" {
		result.ErrorMessage = err.Error()
	}
	r.Recorder.Record(result, llmcall.RecordOptions{
		RunID:       r.RunID,
		Table:       label,
		Format:      string(f),
		Question:    question,
		Context:     text,
		Temperature: r.Temperature,
	})
}

// Failed counts answers that carry an error.
func Failed(answers []AnswerRecord) int {
	n := 0
	for _, a := range answers {
		if a.Error != "" {
			n++
		}
	}
	return n
}

// Package audit drives concurrent LLM analysis of extracted tool functions.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"mcpaudit/internal/completion"
	"mcpaudit/internal/model"
)

const (
	// DefaultMaxConcurrency caps simultaneously in-flight completion calls.
	DefaultMaxConcurrency = 10

	// maxRetries is the total number of attempts per tool function.
	maxRetries = 3

	// backoffBase is the exponential backoff base: the wait before retry i
	// (1-indexed) is backoffBase^i seconds plus jitter in [0, 1) seconds.
	backoffBase = 2
)

// Auditor submits each tool function to a completion client through a
// bounded worker pool. The client is shared across workers and must be
// safe for concurrent use.
type Auditor struct {
	client         completion.Client
	logger         *zap.Logger
	maxConcurrency int

	// Injection points for deterministic retry tests.
	sleep  func(time.Duration)
	jitter func() time.Duration
}

// New creates an auditor with the default concurrency bound.
func New(client completion.Client, logger *zap.Logger) *Auditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auditor{
		client:         client,
		logger:         logger,
		maxConcurrency: DefaultMaxConcurrency,
		sleep:          time.Sleep,
		jitter: func() time.Duration {
			return time.Duration(rand.Float64() * float64(time.Second))
		},
	}
}

// SetMaxConcurrency overrides the concurrency bound. Values below 1 are
// ignored.
func (a *Auditor) SetMaxConcurrency(n int) {
	if n >= 1 {
		a.maxConcurrency = n
	}
}

// Run audits every tool and returns exactly one outcome per input, in
// completion order. A single tool's failure never aborts the batch; after
// exhausting retries it yields a failure outcome instead. Callers needing
// submission order must re-key by (FilePath, StartLine).
func (a *Auditor) Run(ctx context.Context, tools []model.ToolFunction) []model.AnalyzedTool {
	if len(tools) == 0 {
		return nil
	}

	workers := a.maxConcurrency
	if workers > len(tools)+1 {
		workers = len(tools) + 1
	}

	work := make(chan int, len(tools))
	results := make(chan model.AnalyzedTool, len(tools))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				results <- a.auditOne(ctx, tools[idx])
			}
		}()
	}

	for i := range tools {
		work <- i
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	analyzed := make([]model.AnalyzedTool, 0, len(tools))
	for r := range results {
		analyzed = append(analyzed, r)
		if r.Analysis.OK {
			a.logger.Debug("completed analysis",
				zap.String("tool", r.Name),
				zap.String("file", r.FilePath),
				zap.Int("line", r.StartLine))
		} else {
			a.logger.Debug("analysis failed",
				zap.String("tool", r.Name),
				zap.String("file", r.FilePath),
				zap.String("error", r.Analysis.Err))
		}
	}
	return analyzed
}

// auditOne runs the prompt/complete/retry loop for a single tool function.
// All error kinds are retried uniformly.
func (a *Auditor) auditOne(ctx context.Context, tool model.ToolFunction) model.AnalyzedTool {
	prompt := BuildPrompt(tool)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		raw, err := a.client.Complete(ctx, prompt)
		if err == nil {
			return model.AnalyzedTool{ToolFunction: tool, Analysis: parseAnalysis(raw)}
		}
		lastErr = err

		if attempt == maxRetries {
			break
		}
		wait := time.Duration(math.Pow(backoffBase, float64(attempt)))*time.Second + a.jitter()
		a.logger.Debug("retrying analysis",
			zap.String("tool", tool.Name),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
		a.sleep(wait)
	}

	return model.AnalyzedTool{
		ToolFunction: tool,
		Analysis: model.Analysis{
			Err: fmt.Sprintf("exhausted retries: %v", lastErr),
		},
	}
}

// parseAnalysis wraps the raw response and extracts {"score","reason"}
// best-effort. Unparseable output is still a success; only the derived
// fields stay absent.
func parseAnalysis(raw string) model.Analysis {
	analysis := model.Analysis{OK: true, Raw: raw}

	var parsed struct {
		Score  *float64 `json:"score"`
		Reason string   `json:"reason"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &parsed); err != nil {
		return analysis
	}
	if parsed.Score != nil {
		score := int(*parsed.Score)
		analysis.Score = &score
	}
	analysis.Reason = parsed.Reason
	return analysis
}

// extractJSONObject trims markdown fences and surrounding prose, returning
// the outermost {...} span when one exists.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

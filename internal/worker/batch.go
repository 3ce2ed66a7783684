package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/plarroque/cephalo/internal/pipeline"
)

// Assessor runs one turn against a session. A blank session id means
// a fresh session, which is what batch assessment wants: every
// vignette is an independent encounter.
type Assessor interface {
	HandleTurn(ctx context.Context, sessionID, text string) (*pipeline.TurnResult, error)
}

// AssessJob evaluates one clinical vignette.
type AssessJob struct {
	Line     int
	Text     string
	Assessor Assessor
}

// Execute runs the vignette through the triage pipeline.
func (j *AssessJob) Execute(ctx context.Context) Result {
	result, err := j.Assessor.HandleTurn(ctx, "", j.Text)
	return &AssessResult{
		Line:   j.Line,
		Text:   j.Text,
		Result: result,
		Error:  err,
	}
}

// AssessResult is the outcome for one vignette.
type AssessResult struct {
	Line   int
	Text   string
	Result *pipeline.TurnResult
	Error  error
}

func (r *AssessResult) GetError() error {
	return r.Error
}

// BatchProcessor assesses multiple vignettes concurrently. Sessions
// are independent so the only shared state is the embedding cache.
type BatchProcessor struct {
	assessor    Assessor
	concurrency int
}

func NewBatchProcessor(assessor Assessor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		assessor:    assessor,
		concurrency: concurrency,
	}
}

// ProcessTexts assesses the vignettes in parallel. Results come back
// in completion order; callers needing input order sort by Line.
func (b *BatchProcessor) ProcessTexts(ctx context.Context, texts []string) []*AssessResult {
	if len(texts) == 0 {
		return []*AssessResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, text := range texts {
		pool.Submit(&AssessJob{
			Line:     i + 1,
			Text:     text,
			Assessor: b.assessor,
		})
	}

	results := pool.Wait()

	out := make([]*AssessResult, len(results))
	for i, r := range results {
		out[i] = r.(*AssessResult)
	}
	return out
}

// ProcessFile reads vignettes from a file and assesses them.
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*AssessResult, error) {
	texts, err := ReadVignettesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read vignettes: %w", err)
	}

	return b.ProcessTexts(ctx, texts), nil
}

// ReadVignettesFromFile reads one clinical vignette per line. Blank
// lines and # comments are skipped; duplicates are kept, two patients
// can present identically.
func ReadVignettesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var texts []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		texts = append(texts, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return texts, nil
}

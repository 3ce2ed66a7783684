package worker

import (
	"context"
	"errors"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/plarroque/cephalo/internal/pipeline"
)

// MockAssessor implements Assessor
type MockAssessor struct {
	ShouldError bool
}

func (m *MockAssessor) HandleTurn(ctx context.Context, sessionID, text string) (*pipeline.TurnResult, error) {
	time.Sleep(10 * time.Millisecond) // Simulate work
	if m.ShouldError {
		return nil, errors.New("assess error")
	}
	return &pipeline.TurnResult{SessionID: "s-" + text}, nil
}

func TestBatchProcessor_ProcessTexts(t *testing.T) {
	processor := NewBatchProcessor(&MockAssessor{}, 2)

	texts := []string{
		"Femme 45 ans, céphalée brutale",
		"Homme 60 ans, céphalée progressive",
		"Patiente enceinte, céphalée aiguë",
	}

	results := processor.ProcessTexts(context.Background(), texts)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Line < results[j].Line })
	for i, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error on line %d: %v", res.Line, res.Error)
		}
		if res.Result == nil {
			t.Errorf("no result on line %d", res.Line)
		}
		if res.Line != i+1 {
			t.Errorf("line numbers not contiguous: got %d at index %d", res.Line, i)
		}
	}
}

// blockingAssessor only returns once the turn's context is cancelled.
type blockingAssessor struct{}

func (blockingAssessor) HandleTurn(ctx context.Context, sessionID, text string) (*pipeline.TurnResult, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestBatchProcessor_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	processor := NewBatchProcessor(blockingAssessor{}, 2)

	done := make(chan []*AssessResult, 1)
	go func() {
		done <- processor.ProcessTexts(ctx, []string{"a", "b", "c", "d"})
	}()

	cancel()

	select {
	case results := <-done:
		for _, res := range results {
			if res.Error == nil {
				t.Errorf("line %d: expected a cancellation error", res.Line)
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ProcessTexts did not return after cancellation")
	}
}

func TestBatchProcessor_ProcessTexts_Error(t *testing.T) {
	processor := NewBatchProcessor(&MockAssessor{ShouldError: true}, 2)

	results := processor.ProcessTexts(context.Background(), []string{"céphalée"})

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Error == nil {
		t.Error("expected error, got nil")
	}
	if results[0].Result != nil {
		t.Error("expected nil result on error")
	}
}

func TestBatchProcessor_ProcessTexts_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockAssessor{}, 2)

	results := processor.ProcessTexts(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestReadVignettesFromFile(t *testing.T) {
	content := `Femme 45 ans, céphalée brutale
# commentaire
Homme 60 ans, céphalée progressive

Patiente enceinte, céphalée aiguë   `

	tmpfile, err := os.CreateTemp("", "vignettes")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = os.Remove(tmpfile.Name())
	}()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	texts, err := ReadVignettesFromFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ReadVignettesFromFile failed: %v", err)
	}

	expected := []string{
		"Femme 45 ans, céphalée brutale",
		"Homme 60 ans, céphalée progressive",
		"Patiente enceinte, céphalée aiguë",
	}
	if len(texts) != len(expected) {
		t.Fatalf("expected %d vignettes, got %d", len(expected), len(texts))
	}
	for i, text := range texts {
		if text != expected[i] {
			t.Errorf("expected %q at index %d, got %q", expected[i], i, text)
		}
	}
}

func TestReadVignettesFromFile_KeepsDuplicates(t *testing.T) {
	content := "Céphalée brutale\nCéphalée brutale\n"

	tmpfile, err := os.CreateTemp("", "vignettes_dup")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	texts, err := ReadVignettesFromFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ReadVignettesFromFile failed: %v", err)
	}
	if len(texts) != 2 {
		t.Errorf("expected 2 vignettes, duplicates are distinct patients, got %d", len(texts))
	}
}

func TestReadVignettesFromFile_NonExistent(t *testing.T) {
	_, err := ReadVignettesFromFile("non_existent_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestAssessResult_GetError(t *testing.T) {
	r1 := &AssessResult{Text: "céphalée", Error: nil}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("assess failed")
	r2 := &AssessResult{Text: "céphalée", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	content := "Céphalée brutale\nCéphalée progressive\n# commentaire\n\nCéphalée fébrile\n"

	tmpfile, err := os.CreateTemp("", "batch_vignettes")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	processor := NewBatchProcessor(&MockAssessor{}, 2)

	results, err := processor.ProcessFile(context.Background(), tmpfile.Name())
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}

	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	processor := NewBatchProcessor(&MockAssessor{}, 2)

	_, err := processor.ProcessFile(context.Background(), "no_such_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

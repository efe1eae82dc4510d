package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yungbote/dormguard-backend/internal/clients/gemini"
	"github.com/yungbote/dormguard-backend/internal/pkg/logger"
)

type fakeOracle struct {
	replies []string
	errs    []error
	calls   int
	prompts []string
	images  [][]gemini.ImageData
}

func (f *fakeOracle) GenerateContent(ctx context.Context, prompt string, images []gemini.ImageData) (string, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	f.images = append(f.images, images)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var reply string
	if i < len(f.replies) {
		reply = f.replies[i]
	}
	return reply, err
}

func scorerWith(t *testing.T, oracle gemini.Client, mutate func(*ScorerConfig)) ScorerService {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	cfg := DefaultScorerConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	return NewScorerServiceWithConfig(log, oracle, cfg)
}

func jpeg() gemini.ImageData {
	return gemini.ImageData{MimeType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}}
}

func TestScoreParsesVerdict(t *testing.T) {
	oracle := &fakeOracle{replies: []string{"Score: 7\nFeedback: Desk needs work."}}
	svc := scorerWith(t, oracle, nil)

	out, err := svc.Score(context.Background(), jpeg(), nil)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if out.Score != 7 {
		t.Fatalf("score = %d, want 7", out.Score)
	}
	if out.Feedback != "Desk needs work." {
		t.Fatalf("feedback = %q", out.Feedback)
	}
	if out.Fallback {
		t.Fatalf("unexpected fallback flag")
	}
}

func TestScoreClampsAboveTen(t *testing.T) {
	oracle := &fakeOracle{replies: []string{"Score: 15\nFeedback: Spotless."}}
	svc := scorerWith(t, oracle, nil)

	out, err := svc.Score(context.Background(), jpeg(), nil)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if out.Score != 10 {
		t.Fatalf("score = %d, want clamp to 10", out.Score)
	}
}

func TestScoreNotRoomPhraseOverridesNumber(t *testing.T) {
	oracle := &fakeOracle{replies: []string{"Score: 9\nThis image does not show a dormitory room."}}
	svc := scorerWith(t, oracle, nil)

	out, err := svc.Score(context.Background(), jpeg(), nil)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if out.Score != 0 {
		t.Fatalf("score = %d, want phrase override to 0", out.Score)
	}
	if !out.NotSubject {
		t.Fatalf("phrase override must flag the verdict not-subject")
	}
}

func TestScoreNotSubjectLabelledReply(t *testing.T) {
	oracle := &fakeOracle{replies: []string{"Score: 0\nNot a room: screenshot - this is not a dormitory room photo."}}
	svc := scorerWith(t, oracle, nil)

	out, err := svc.Score(context.Background(), jpeg(), nil)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if out.Score != 0 || !out.NotSubject {
		t.Fatalf("got score %d notSubject %v, want 0/true", out.Score, out.NotSubject)
	}
	if out.Feedback != "screenshot - this is not a dormitory room photo." {
		t.Fatalf("feedback should carry the rejection reason, got %q", out.Feedback)
	}
}

func TestScoreDirtyRoomZeroIsNotFlaggedNotSubject(t *testing.T) {
	oracle := &fakeOracle{replies: []string{"Score: 0\nFeedback: Trash everywhere, unacceptable."}}
	svc := scorerWith(t, oracle, nil)

	out, err := svc.Score(context.Background(), jpeg(), nil)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if out.Score != 0 {
		t.Fatalf("score = %d, want 0", out.Score)
	}
	if out.NotSubject {
		t.Fatalf("a legitimately scored 0 must not be flagged not-subject")
	}
}

func TestScorePromptsCarryCriteriaAndNotRoomRule(t *testing.T) {
	oracle := &fakeOracle{replies: []string{
		"Score: 8\nFeedback: Close to the reference.",
		"Score: 8\nFeedback: Tidy.",
	}}
	svc := scorerWith(t, oracle, nil)

	tmpl := jpeg()
	if _, err := svc.Score(context.Background(), jpeg(), &tmpl); err != nil {
		t.Fatalf("comparison score: %v", err)
	}
	if _, err := svc.Score(context.Background(), jpeg(), nil); err != nil {
		t.Fatalf("single score: %v", err)
	}
	if len(oracle.prompts) != 2 {
		t.Fatalf("prompts recorded = %d, want 2", len(oracle.prompts))
	}
	for i, prompt := range oracle.prompts {
		for _, want := range []string{"(3 points)", "(2 points)", "Not a room:", "Score:"} {
			if !strings.Contains(prompt, want) {
				t.Fatalf("prompt %d missing %q", i, want)
			}
		}
	}
	if !strings.Contains(oracle.prompts[0], "Overall similarity") {
		t.Fatalf("comparison prompt missing the similarity criterion")
	}
	if !strings.Contains(oracle.prompts[1], "Tidiness") || !strings.Contains(oracle.prompts[1], "Safety") {
		t.Fatalf("evaluation prompt missing weighted criteria")
	}
}

func TestScoreFallbackBandWhenOracleDown(t *testing.T) {
	oracle := &fakeOracle{errs: []error{errors.New("connection refused")}}
	svc := scorerWith(t, oracle, nil)

	out, err := svc.Score(context.Background(), jpeg(), nil)
	if err != nil {
		t.Fatalf("Score with fallback enabled should not error: %v", err)
	}
	if !out.Fallback {
		t.Fatalf("expected fallback flag")
	}
	if out.Score < 6 || out.Score > 8 {
		t.Fatalf("fallback score %d outside default band 6..8", out.Score)
	}
	if out.Feedback == "" {
		t.Fatalf("expected canned feedback")
	}
}

func TestScoreFallbackDisabledReturnsOracleFailure(t *testing.T) {
	oracle := &fakeOracle{errs: []error{errors.New("timeout")}}
	svc := scorerWith(t, oracle, func(cfg *ScorerConfig) {
		cfg.Fallback.Enabled = false
	})

	out, err := svc.Score(context.Background(), jpeg(), nil)
	if !errors.Is(err, ErrOracleFailure) {
		t.Fatalf("expected ErrOracleFailure, got %v", err)
	}
	if out.Score != 0 {
		t.Fatalf("score = %d, want 0", out.Score)
	}
}

func TestScoreComparisonDegradesToSingleEval(t *testing.T) {
	oracle := &fakeOracle{
		errs:    []error{errors.New("payload too large"), nil},
		replies: []string{"", "Score: 5\nFeedback: Middling."},
	}
	svc := scorerWith(t, oracle, nil)

	tmpl := jpeg()
	out, err := svc.Score(context.Background(), jpeg(), &tmpl)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if out.Score != 5 {
		t.Fatalf("score = %d, want 5 from degraded eval", out.Score)
	}
	if oracle.calls != 2 {
		t.Fatalf("calls = %d, want comparison then single eval", oracle.calls)
	}
	if len(oracle.images[0]) != 2 {
		t.Fatalf("first call should carry reference + submission")
	}
	if len(oracle.images[1]) != 1 {
		t.Fatalf("second call should carry only the submission")
	}
}

func TestParseScoreTextRejectsUnparsableReply(t *testing.T) {
	if _, _, _, err := parseScoreText("I cannot help with that.", nil); err == nil {
		t.Fatalf("expected error for reply without a score line")
	}
	if _, _, _, err := parseScoreText("", nil); err == nil {
		t.Fatalf("expected error for empty reply")
	}
}

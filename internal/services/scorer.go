package services

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/dormguard-backend/internal/clients/gemini"
	"github.com/yungbote/dormguard-backend/internal/pkg/logger"
	"github.com/yungbote/dormguard-backend/internal/utils"
)

const evalPrompt = `Evaluate this dormitory room photo on a 10-point scale.

Important: reply with "Score: 0" and a line starting with "Not a room:" when
the photo is not a dormitory room photo, including:
- game screenshots, internet images, movie or drama scenes
- bathrooms, hallways, stairs, lobbies, outdoor scenes
- selfies where no room is visible
- photos of a computer or TV screen
- drawings, illustrations, cartoon images

Scoring criteria (apply only when the photo shows a dormitory room):
- Tidiness (3 points): how well belongings are organized
- Cleanliness (3 points): floor, desk and bed cleanliness
- Safety (2 points): no hazardous items present
- Livability (2 points): overall comfort of the room

Response format:
Score: N
Feedback: one short evaluation sentence

When the photo is not a room:
Score: 0
Not a room: [image type] - this is not a dormitory room photo.`

const comparePrompt = `Compare these two dormitory room photos.

First image: the reference photo registered by the administrator.
Second image: the photo submitted for inspection.

Important: reply with "Score: 0" and a line starting with "Not a room:" when
the second image is not a dormitory room photo, including:
- game screenshots, internet images, movie or drama scenes
- bathrooms, hallways, stairs, lobbies, outdoor scenes
- photos of a computer or TV screen, drawings, illustrations

Comparison criteria (10 points total):
- Tidiness versus the reference (3 points)
- Cleanliness versus the reference (3 points)
- Safety (2 points): no hazardous items present
- Overall similarity to the reference (2 points)

Response format:
Score: N
Feedback: one short evaluation sentence against the reference

When the second image is not a room:
Score: 0
Not a room: [reason]`

// ScorerConfig tunes parsing and the oracle-failure fallback. It ships with
// defaults and can be overridden from a YAML file so operations can adjust
// the canned pools without a rebuild.
type ScorerConfig struct {
	Fallback struct {
		Enabled  bool     `yaml:"enabled"`
		MinScore int      `yaml:"min_score"`
		MaxScore int      `yaml:"max_score"`
		Messages []string `yaml:"messages"`
	} `yaml:"fallback"`
	NotRoomPhrases []string `yaml:"not_room_phrases"`
}

func DefaultScorerConfig() ScorerConfig {
	var cfg ScorerConfig
	cfg.Fallback.Enabled = true
	cfg.Fallback.MinScore = 6
	cfg.Fallback.MaxScore = 8
	cfg.Fallback.Messages = []string{
		"The room looks generally tidy. Keep it up.",
		"Acceptable condition overall, a few items could be stowed away.",
		"Mostly clean. Pay attention to the desk area next time.",
		"Good enough for today's inspection. Keep surfaces clear.",
		"The room passes at a glance. Remember to keep the floor clear.",
	}
	cfg.NotRoomPhrases = []string{
		"not a room",
		"not a dormitory",
		"cannot identify a room",
		"does not show a room",
		"no room visible",
		"not show a dormitory room",
	}
	return cfg
}

// LoadScorerConfig merges a YAML override over the defaults when
// SCORER_CONFIG_PATH points at a readable file.
func LoadScorerConfig(log *logger.Logger) ScorerConfig {
	cfg := DefaultScorerConfig()
	path := utils.GetEnv("SCORER_CONFIG_PATH", "", log)
	if path == "" {
		return cfg
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if log != nil {
			log.Warn("Could not read scorer config, using defaults", "path", path, "error", err)
		}
		return cfg
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		if log != nil {
			log.Warn("Could not parse scorer config, using defaults", "path", path, "error", err)
		}
		return DefaultScorerConfig()
	}
	if cfg.Fallback.MinScore > cfg.Fallback.MaxScore {
		cfg.Fallback.MinScore, cfg.Fallback.MaxScore = cfg.Fallback.MaxScore, cfg.Fallback.MinScore
	}
	if len(cfg.Fallback.Messages) == 0 {
		cfg.Fallback.Messages = DefaultScorerConfig().Fallback.Messages
	}
	return cfg
}

// ScoreOutcome is the scorer verdict for one photo. Fallback marks scores
// that were synthesized because the oracle was unavailable. NotSubject marks
// a score-0 verdict caused by the photo not showing a dormitory room, as
// opposed to a room that earned a 0.
type ScoreOutcome struct {
	Score      int
	Feedback   string
	Fallback   bool
	NotSubject bool
}

type ScorerService interface {
	Score(ctx context.Context, photo gemini.ImageData, template *gemini.ImageData) (*ScoreOutcome, error)
}

type scorerService struct {
	log    *logger.Logger
	client gemini.Client
	cfg    ScorerConfig
}

func NewScorerService(log *logger.Logger, client gemini.Client) ScorerService {
	return NewScorerServiceWithConfig(log, client, LoadScorerConfig(log))
}

func NewScorerServiceWithConfig(log *logger.Logger, client gemini.Client, cfg ScorerConfig) ScorerService {
	return &scorerService{
		log:    log.With("service", "ScorerService"),
		client: client,
		cfg:    cfg,
	}
}

func (s *scorerService) Score(ctx context.Context, photo gemini.ImageData, template *gemini.ImageData) (*ScoreOutcome, error) {
	var (
		text string
		err  error
	)
	if template != nil {
		text, err = s.client.GenerateContent(ctx, comparePrompt, []gemini.ImageData{*template, photo})
		if err != nil {
			// Comparison mode degrades to a plain evaluation before the
			// fallback band kicks in.
			s.log.Warn("Template comparison failed, falling back to single evaluation", "error", err)
			text, err = s.client.GenerateContent(ctx, evalPrompt, []gemini.ImageData{photo})
		}
	} else {
		text, err = s.client.GenerateContent(ctx, evalPrompt, []gemini.ImageData{photo})
	}
	if err != nil {
		return s.fallback(err)
	}

	score, feedback, notSubject, parseErr := parseScoreText(text, s.cfg.NotRoomPhrases)
	if parseErr != nil {
		s.log.Warn("Could not parse oracle verdict", "error", parseErr, "text", text)
		return s.fallback(parseErr)
	}
	return &ScoreOutcome{Score: score, Feedback: feedback, NotSubject: notSubject}, nil
}

func (s *scorerService) fallback(cause error) (*ScoreOutcome, error) {
	if !s.cfg.Fallback.Enabled {
		return &ScoreOutcome{Score: 0}, fmt.Errorf("%w: %v", ErrOracleFailure, cause)
	}
	span := s.cfg.Fallback.MaxScore - s.cfg.Fallback.MinScore + 1
	if span < 1 {
		span = 1
	}
	score := s.cfg.Fallback.MinScore + rand.Intn(span)
	msg := s.cfg.Fallback.Messages[rand.Intn(len(s.cfg.Fallback.Messages))]
	s.log.Warn("Scoring oracle unavailable, using fallback band", "score", score, "error", cause)
	return &ScoreOutcome{Score: score, Feedback: msg, Fallback: true}, nil
}

var scoreDigits = regexp.MustCompile(`(\d+)`)

// parseScoreText pulls the numeric verdict and feedback line out of the
// oracle's free-form reply. A reply that classifies the photo as not showing
// a room forces the score to 0 and flags the verdict not-subject, regardless
// of any number present.
func parseScoreText(text string, notRoomPhrases []string) (int, string, bool, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, "", false, fmt.Errorf("empty oracle reply")
	}

	// The prompt asks for a "Not a room:" line with the rejection reason.
	for _, line := range strings.Split(trimmed, "\n") {
		clean := strings.TrimSpace(line)
		if len(clean) > len("not a room:") && strings.EqualFold(clean[:len("not a room:")], "not a room:") {
			reason := strings.TrimSpace(clean[len("not a room:"):])
			return 0, reason, true, nil
		}
	}
	lower := strings.ToLower(trimmed)
	for _, phrase := range notRoomPhrases {
		if phrase != "" && strings.Contains(lower, strings.ToLower(phrase)) {
			return 0, trimmed, true, nil
		}
	}

	score := -1
	feedback := ""
	for _, line := range strings.Split(trimmed, "\n") {
		clean := strings.TrimSpace(line)
		lowerLine := strings.ToLower(clean)
		if score < 0 && strings.HasPrefix(lowerLine, "score") {
			if m := scoreDigits.FindString(clean); m != "" {
				if v, err := strconv.Atoi(m); err == nil {
					score = v
				}
			}
			continue
		}
		if strings.HasPrefix(lowerLine, "feedback:") {
			feedback = strings.TrimSpace(clean[len("feedback:"):])
		}
	}
	if score < 0 {
		return 0, "", false, fmt.Errorf("no score line in oracle reply")
	}
	if score > 10 {
		score = 10
	}
	if feedback == "" {
		feedback = trimmed
	}
	return score, feedback, false, nil
}

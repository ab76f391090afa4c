package roast

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kapu/roast-rag-go/internal/domain"
	"github.com/kapu/roast-rag-go/internal/util"
	"go.uber.org/zap"
)

// Canned fallback record content.
const (
	FallbackArchetype      = "Unroastable NPC"
	FallbackHeadline       = "Our AI broke trying to comprehend your blandness."
	FallbackMusicRoast     = "You broke the system."
	FallbackMovieRoast     = "Try again later."
	FallbackVisualRoast    = "Error analyzing image."
	FallbackOverallVerdict = "Server Error."
)

// Wire shape of the model output. Pointers tell "missing" apart from zero values.
type wireRecord struct {
	UserProfile *struct {
		DisplayName *string `json:"display_name"`
		Archetype   *string `json:"archetype"`
	} `json:"user_profile"`
	Roast *struct {
		Headline       *string `json:"headline"`
		MusicRoast     *string `json:"music_roast"`
		MovieRoast     *string `json:"movie_roast"`
		VisualRoast    *string `json:"visual_roast"`
		OverallVerdict *string `json:"overall_verdict"`
	} `json:"roast"`
	Stats *struct {
		BasicScore   *int `json:"basic_score"`
		RedFlagScore *int `json:"red_flag_score"`
	} `json:"stats"`
	Verdict *struct {
		Verdict1 *string `json:"verdict_1"`
		Verdict2 *string `json:"verdict_2"`
		Verdict3 *string `json:"verdict_3"`
		Verdict4 *string `json:"verdict_4"`
	} `json:"verdict"`
}

// Normalizer turns raw model text into a RoastRecord, all or nothing.
type Normalizer struct {
	logger *zap.Logger
}

func NewNormalizer(logger *zap.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize parses raw. Any defect yields the fallback record for name.
func (n *Normalizer) Normalize(name, raw string) domain.RoastResult {
	cleaned := StripCodeFence(raw)
	if cleaned == "" {
		return n.fail(name, domain.ReasonEmptyOutput, nil, raw)
	}

	var wire wireRecord
	dec := json.NewDecoder(strings.NewReader(cleaned))
	if err := dec.Decode(&wire); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return n.fail(name, domain.ReasonSchemaViolation, err, cleaned)
		}
		return n.fail(name, domain.ReasonMalformedOutput, err, cleaned)
	}
	if _, err := dec.Token(); err != io.EOF {
		return n.fail(name, domain.ReasonMalformedOutput, errors.New("trailing data after JSON object"), cleaned)
	}

	record, err := wire.toRecord()
	if err != nil {
		return n.fail(name, domain.ReasonSchemaViolation, err, cleaned)
	}
	if err := record.Validate(); err != nil {
		return n.fail(name, domain.ReasonSchemaViolation, err, cleaned)
	}

	return domain.RoastResult{Record: record, Outcome: domain.OutcomeSuccess}
}

func (n *Normalizer) fail(name string, reason domain.FailureReason, err error, raw string) domain.RoastResult {
	n.logger.Warn("Model output rejected",
		zap.String("reason", string(reason)),
		zap.Error(err),
		zap.String("response_preview", util.Preview(raw, 200)),
	)
	return Fallback(name, reason)
}

// Fallback returns the canned record shown whenever generation cannot be used.
func Fallback(name string, reason domain.FailureReason) domain.RoastResult {
	return domain.RoastResult{
		Record: domain.RoastRecord{
			UserProfile: domain.UserProfile{DisplayName: name, Archetype: FallbackArchetype},
			Roast: domain.RoastContent{
				Headline:       FallbackHeadline,
				MusicRoast:     FallbackMusicRoast,
				MovieRoast:     FallbackMovieRoast,
				VisualRoast:    FallbackVisualRoast,
				OverallVerdict: FallbackOverallVerdict,
			},
			Stats:   domain.Stats{BasicScore: 0, RedFlagScore: 0},
			Verdict: domain.Verdicts{Verdict1: "Error", Verdict2: "Fail", Verdict3: "404", Verdict4: "Broke"},
		},
		Outcome: domain.OutcomeFallback,
		Reason:  reason,
	}
}

// StripCodeFence trims whitespace and removes one leading ```json (or bare ```)
// and one trailing ``` fence.
func StripCodeFence(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "```json"))
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "```"))
	}
	if strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "```"))
	}
	return cleaned
}

func (w wireRecord) toRecord() (domain.RoastRecord, error) {
	var missing []string
	str := func(field string, v *string) string {
		if v == nil {
			missing = append(missing, field)
			return ""
		}
		return *v
	}
	num := func(field string, v *int) int {
		if v == nil {
			missing = append(missing, field)
			return 0
		}
		return *v
	}

	var record domain.RoastRecord

	if w.UserProfile == nil {
		missing = append(missing, "user_profile")
	} else {
		record.UserProfile.DisplayName = str("user_profile.display_name", w.UserProfile.DisplayName)
		record.UserProfile.Archetype = str("user_profile.archetype", w.UserProfile.Archetype)
	}

	if w.Roast == nil {
		missing = append(missing, "roast")
	} else {
		record.Roast.Headline = str("roast.headline", w.Roast.Headline)
		record.Roast.MusicRoast = str("roast.music_roast", w.Roast.MusicRoast)
		record.Roast.MovieRoast = str("roast.movie_roast", w.Roast.MovieRoast)
		record.Roast.OverallVerdict = str("roast.overall_verdict", w.Roast.OverallVerdict)
		if w.Roast.VisualRoast != nil {
			record.Roast.VisualRoast = *w.Roast.VisualRoast
		}
	}

	if w.Stats == nil {
		missing = append(missing, "stats")
	} else {
		record.Stats.BasicScore = num("stats.basic_score", w.Stats.BasicScore)
		record.Stats.RedFlagScore = num("stats.red_flag_score", w.Stats.RedFlagScore)
	}

	if w.Verdict == nil {
		missing = append(missing, "verdict")
	} else {
		record.Verdict.Verdict1 = str("verdict.verdict_1", w.Verdict.Verdict1)
		record.Verdict.Verdict2 = str("verdict.verdict_2", w.Verdict.Verdict2)
		record.Verdict.Verdict3 = str("verdict.verdict_3", w.Verdict.Verdict3)
		record.Verdict.Verdict4 = str("verdict.verdict_4", w.Verdict.Verdict4)
	}

	if len(missing) > 0 {
		return domain.RoastRecord{}, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return record, nil
}

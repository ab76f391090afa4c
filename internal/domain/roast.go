package domain

import "fmt"

const (
	MinScore = 0
	MaxScore = 100
)

// RoastRecord is the response contract returned for every roast request,
// including the fallback path.
type RoastRecord struct {
	UserProfile UserProfile  `json:"user_profile"`
	Roast       RoastContent `json:"roast"`
	Stats       Stats        `json:"stats"`
	Verdict     Verdicts     `json:"verdict"`
}

type UserProfile struct {
	DisplayName string `json:"display_name"`
	Archetype   string `json:"archetype"`
}

type RoastContent struct {
	Headline       string `json:"headline"`
	MusicRoast     string `json:"music_roast"`
	MovieRoast     string `json:"movie_roast"`
	VisualRoast    string `json:"visual_roast,omitempty"`
	OverallVerdict string `json:"overall_verdict"`
}

type Stats struct {
	BasicScore   int `json:"basic_score"`
	RedFlagScore int `json:"red_flag_score"`
}

type Verdicts struct {
	Verdict1 string `json:"verdict_1"`
	Verdict2 string `json:"verdict_2"`
	Verdict3 string `json:"verdict_3"`
	Verdict4 string `json:"verdict_4"`
}

// Validate checks the value constraints JSON typing cannot express.
func (r RoastRecord) Validate() error {
	if r.Stats.BasicScore < MinScore || r.Stats.BasicScore > MaxScore {
		return fmt.Errorf("basic_score %d out of range [%d,%d]", r.Stats.BasicScore, MinScore, MaxScore)
	}
	if r.Stats.RedFlagScore < MinScore || r.Stats.RedFlagScore > MaxScore {
		return fmt.Errorf("red_flag_score %d out of range [%d,%d]", r.Stats.RedFlagScore, MinScore, MaxScore)
	}
	return nil
}

// RoastRequest is the input of one orchestration call.
type RoastRequest struct {
	Name  string
	Taste string
	Image []byte
}

func (r RoastRequest) HasImage() bool {
	return len(r.Image) > 0
}

// Outcome tells which branch produced a RoastRecord.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFallback Outcome = "fallback"
)

// FailureReason names why a request ended on the fallback branch.
type FailureReason string

const (
	ReasonGenerationFailed FailureReason = "generation_failed"
	ReasonCircuitOpen      FailureReason = "circuit_open"
	ReasonEmptyOutput      FailureReason = "empty_output"
	ReasonMalformedOutput  FailureReason = "malformed_output"
	ReasonSchemaViolation  FailureReason = "schema_violation"
)

// RoastResult is the internal tagged result; callers outside the roast service
// only ever see Record.
type RoastResult struct {
	Record  RoastRecord
	Outcome Outcome
	Reason  FailureReason
}

func (r RoastResult) IsFallback() bool {
	return r.Outcome == OutcomeFallback
}

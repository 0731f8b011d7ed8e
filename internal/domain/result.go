package domain

// GameResultType is the only payload type tag the bot understands.
const GameResultType = "game_result"

// GameResult is a validated mini-app result.
type GameResult struct {
	Score int64
	Won   bool
	// ObstaclesPassed is nil when the payload did not report it.
	ObstaclesPassed *int64
}

// OutcomeKind tags a validation Outcome.
type OutcomeKind int

const (
	OutcomeValid OutcomeKind = iota
	OutcomeMalformed
	OutcomeUnrecognized
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeValid:
		return "valid"
	case OutcomeMalformed:
		return "malformed"
	case OutcomeUnrecognized:
		return "unrecognized"
	default:
		return "unknown"
	}
}

// Outcome is the result of validating a raw mini-app payload. Result is only
// meaningful for OutcomeValid and TypeTag only for OutcomeUnrecognized.
type Outcome struct {
	Kind    OutcomeKind
	Raw     string
	Result  GameResult
	TypeTag string
}

// Valid wraps a parsed game result.
func Valid(raw string, result GameResult) Outcome {
	return Outcome{Kind: OutcomeValid, Raw: raw, Result: result}
}

// Malformed marks a payload that is not a JSON object.
func Malformed(raw string) Outcome {
	return Outcome{Kind: OutcomeMalformed, Raw: raw}
}

// Unrecognized marks a JSON object whose type tag is missing or unknown.
func Unrecognized(raw, typeTag string) Outcome {
	return Outcome{Kind: OutcomeUnrecognized, Raw: raw, TypeTag: typeTag}
}

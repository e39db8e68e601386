package domain

import "time"

// ValidatorKind names one automated quality dimension a question is judged
// on.
type ValidatorKind string

const (
	ValidatorStructure  ValidatorKind = "structure"
	ValidatorTechnical  ValidatorKind = "technical"
	ValidatorDifficulty ValidatorKind = "difficulty"
	ValidatorClarity    ValidatorKind = "clarity"
)

// ValidatorKinds lists the standard dimensions in evaluation order.
func ValidatorKinds() []ValidatorKind {
	return []ValidatorKind{
		ValidatorStructure,
		ValidatorTechnical,
		ValidatorDifficulty,
		ValidatorClarity,
	}
}

// Default validator weights. Technical accuracy carries the most weight and
// acts as the trusted gatekeeper.
const (
	DefaultStructureWeight  = 0.2
	DefaultTechnicalWeight  = 0.4
	DefaultDifficultyWeight = 0.2
	DefaultClarityWeight    = 0.2
)

// DefaultApprovalThreshold is the weighted-mean bar a question must reach
// to be approved without correction.
const DefaultApprovalThreshold = 0.7

// ValidatorSpec configures one automated validator: its dimension, its
// aggregation weight, and whether its failure aborts the whole batch
// validation instead of falling back to a default pass.
type ValidatorSpec struct {
	Kind     ValidatorKind `json:"kind" yaml:"kind"`
	Weight   float64       `json:"weight" yaml:"weight"`
	Critical bool          `json:"critical" yaml:"critical"`
}

// DefaultValidatorSpecs returns the standard four-validator configuration.
func DefaultValidatorSpecs() []ValidatorSpec {
	return []ValidatorSpec{
		{Kind: ValidatorStructure, Weight: DefaultStructureWeight},
		{Kind: ValidatorTechnical, Weight: DefaultTechnicalWeight, Critical: true},
		{Kind: ValidatorDifficulty, Weight: DefaultDifficultyWeight},
		{Kind: ValidatorClarity, Weight: DefaultClarityWeight},
	}
}

// WeightsOf flattens specs into a kind-to-weight lookup for score
// aggregation.
func WeightsOf(specs []ValidatorSpec) map[ValidatorKind]float64 {
	weights := make(map[ValidatorKind]float64, len(specs))
	for _, s := range specs {
		weights[s.Kind] = s.Weight
	}
	return weights
}

// ValidationResult is one validator's verdict on one question. Results are
// immutable once appended; a question accumulates one per enabled validator
// per validation pass.
type ValidationResult struct {
	Kind      ValidatorKind `json:"validator_type"`
	Score     int           `json:"score"`
	Comment   string        `json:"comment"`
	Timestamp time.Time     `json:"timestamp"`
	Model     string        `json:"model_used,omitempty"`
}

// EvaluatorScores are the four fixed manual-review slots carried by every
// question. Automated validation mirrors each validator's 0/1 verdict into
// the matching slot; reviewers may overwrite them later. A zero in any slot
// marks the question for the batch-correction path.
type EvaluatorScores struct {
	Structure  int `json:"punt_estructura"`
	Technical  int `json:"punt_tecnica"`
	Difficulty int `json:"punt_dificultad"`
	Clarity    int `json:"punt_claridad"`
}

// Set assigns the slot matching kind. Unknown kinds are ignored.
func (e *EvaluatorScores) Set(kind ValidatorKind, score int) {
	switch kind {
	case ValidatorStructure:
		e.Structure = score
	case ValidatorTechnical:
		e.Technical = score
	case ValidatorDifficulty:
		e.Difficulty = score
	case ValidatorClarity:
		e.Clarity = score
	}
}

// AnyZero reports whether any slot holds a failing score.
func (e EvaluatorScores) AnyZero() bool {
	return e.Structure == 0 || e.Technical == 0 || e.Difficulty == 0 || e.Clarity == 0
}

package merge

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/pangenomerge/pkg/collapse"
	"github.com/matzehuels/pangenomerge/pkg/errors"
	"github.com/matzehuels/pangenomerge/pkg/oracle"
	"github.com/matzehuels/pangenomerge/pkg/ortholog"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultIdentityThreshold is the minimum identity for an ortholog match.
	DefaultIdentityThreshold = ortholog.DefaultIdentityThreshold

	// DefaultLengthThreshold is the minimum length ratio for an ortholog match.
	DefaultLengthThreshold = ortholog.DefaultLengthThreshold

	// DefaultFamilyThreshold is the minimum identity for a collapse candidate.
	DefaultFamilyThreshold = collapse.DefaultFamilyThreshold

	// DefaultContextThreshold is the minimum neighborhood similarity for a
	// collapse.
	DefaultContextThreshold = collapse.DefaultContextThreshold
)

// Mode selects what a run produces besides the merged graph.
type Mode string

const (
	// ModeRun merges only.
	ModeRun Mode = "run"
	// ModeValidate also scores every iteration against a truth graph.
	ModeValidate Mode = "validate"
)

// =============================================================================
// Options
// =============================================================================

// Options configures an Engine. Zero thresholds are replaced by defaults.
type Options struct {
	IdentityThreshold float64 `json:"identity_threshold" validate:"gt=0,lte=1"`
	LengthThreshold   float64 `json:"length_threshold" validate:"gt=0,lte=1"`
	FamilyThreshold   float64 `json:"family_threshold" validate:"gt=0,lte=1"`
	ContextThreshold  float64 `json:"context_threshold" validate:"gt=0,lte=1"`

	// Workers bounds collapse scoring concurrency. Zero means GOMAXPROCS.
	Workers int `json:"workers" validate:"gte=0"`

	// Search tuning forwarded to the oracle. MinIdentity is set per search.
	Coverage    float64 `json:"coverage" validate:"gte=0,lte=1"`
	Sensitivity float64 `json:"sensitivity" validate:"gte=0,lte=10"`
	Threads     int     `json:"threads" validate:"gte=0"`

	// OffsetIDs shifts genome ids of each input past those of earlier inputs.
	OffsetIDs bool `json:"offset_ids"`

	Mode Mode `json:"mode" validate:"oneof=run validate"`
}

// DefaultOptions returns Options with every default applied.
func DefaultOptions() Options {
	var o Options
	o.SetDefaults()
	return o
}

// SetDefaults fills zero values.
func (o *Options) SetDefaults() {
	if o.IdentityThreshold == 0 {
		o.IdentityThreshold = DefaultIdentityThreshold
	}
	if o.LengthThreshold == 0 {
		o.LengthThreshold = DefaultLengthThreshold
	}
	if o.FamilyThreshold == 0 {
		o.FamilyThreshold = DefaultFamilyThreshold
	}
	if o.ContextThreshold == 0 {
		o.ContextThreshold = DefaultContextThreshold
	}
	if o.Mode == "" {
		o.Mode = ModeRun
	}
}

var optionsValidator = validator.New()

// Validate checks option ranges. The error carries INVALID_CONFIG.
func (o *Options) Validate() error {
	err := optionsValidator.Struct(o)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid options")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(errors.ErrCodeInvalidConfig, "invalid options: %s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "gt":
		return field + " must be greater than " + fe.Param()
	case "gte":
		return field + " must be at least " + fe.Param()
	case "lte":
		return field + " must be at most " + fe.Param()
	case "oneof":
		return field + " must be one of: " + fe.Param()
	default:
		return field + " is invalid"
	}
}

// ValidateAndSetDefaults applies defaults, then validates.
func (o *Options) ValidateAndSetDefaults() error {
	o.SetDefaults()
	return o.Validate()
}

func (o *Options) matcher() ortholog.Options {
	return ortholog.Options{IdentityThreshold: o.IdentityThreshold, LengthThreshold: o.LengthThreshold}
}

func (o *Options) search(minIdentity float64) oracle.Params {
	return oracle.Params{
		MinIdentity: minIdentity,
		Coverage:    o.Coverage,
		Sensitivity: o.Sensitivity,
		Threads:     o.Threads,
	}
}

func (o *Options) collapser() collapse.Options {
	return collapse.Options{
		FamilyThreshold:  o.FamilyThreshold,
		ContextThreshold: o.ContextThreshold,
		Workers:          o.Workers,
		Search:           o.search(o.FamilyThreshold),
	}
}

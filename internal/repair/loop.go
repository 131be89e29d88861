package repair

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/jonathan/credential-mapper/internal/document"
	"github.com/jonathan/credential-mapper/internal/pointer"
	"github.com/jonathan/credential-mapper/internal/types"
)

// CredentialsV2Context is the JSON-LD context every VCDM 2.0 credential starts with
const CredentialsV2Context = "https://www.w3.org/ns/credentials/v2"

// Placeholder is written where a value is needed only to make structure addressable
const Placeholder = "TEMP"

// DefaultMaxIterations bounds the number of decode attempts in one Verify call
const DefaultMaxIterations = 1000

// DefaultFormatSentinels are valid stand-ins for the string formats a schema may require
var DefaultFormatSentinels = map[string]string{
	"date-time":     "2010-01-01T00:00:00Z",
	"date":          "2010-01-01",
	"time":          "00:00:00Z",
	"email":         "user@example.com",
	"idn-email":     "user@example.com",
	"hostname":      "example.com",
	"idn-hostname":  "example.com",
	"ipv4":          "127.0.0.1",
	"ipv6":          "::1",
	"uri":           "https://example.com",
	"uri-reference": "https://example.com",
	"iri":           "https://example.com",
	"iri-reference": "https://example.com",
	"uuid":          "00000000-0000-0000-0000-000000000000",
}

// Decoder decodes a document tree against a target schema. On failure it reports the
// first problem as a *types.Defect; any other error is treated as a contract violation.
type Decoder interface {
	Decode(root any) (any, error)
}

// Patch is one structural write made by Verify
type Patch struct {
	Kind  types.DefectKind
	Path  pointer.Path
	Value any
}

// Outcome is the result of a Verify call. When the document conforms, Value holds the
// decoded value and Defect is nil. Otherwise Hole is the location that needs outside
// input and Defect is the failure that exposed it.
type Outcome struct {
	Value   any
	Hole    pointer.Path
	Defect  *types.Defect
	Patches []Patch
}

// Conforms reports whether the document decoded successfully
func (o *Outcome) Conforms() bool {
	return o.Defect == nil
}

// Verifier runs the repair loop against one decoder
type Verifier struct {
	decoder         Decoder
	logger          *zap.Logger
	maxIterations   int
	knownLiterals   []any
	formatSentinels map[string]string
}

// Option configures a Verifier
type Option func(*Verifier)

// WithLogger sets the logger used to trace patches.
func WithLogger(logger *zap.Logger) Option {
	return func(v *Verifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithMaxIterations caps the decode attempts per Verify call.
func WithMaxIterations(n int) Option {
	return func(v *Verifier) {
		if n > 0 {
			v.maxIterations = n
		}
	}
}

// WithKnownLiterals replaces the fixed values the loop may insert on its own.
func WithKnownLiterals(literals ...any) Option {
	return func(v *Verifier) {
		v.knownLiterals = append([]any(nil), literals...)
	}
}

// WithFormatSentinel sets the stand-in written for strings of the given format.
func WithFormatSentinel(format, value string) Option {
	return func(v *Verifier) {
		v.formatSentinels[format] = value
	}
}

// NewVerifier creates a Verifier for decoder.
func NewVerifier(decoder Decoder, opts ...Option) *Verifier {
	v := &Verifier{
		decoder:         decoder,
		logger:          zap.NewNop(),
		maxIterations:   DefaultMaxIterations,
		knownLiterals:   []any{CredentialsV2Context},
		formatSentinels: make(map[string]string, len(DefaultFormatSentinels)),
	}
	for format, value := range DefaultFormatSentinels {
		v.formatSentinels[format] = value
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify decodes doc, patching it in place after each recoverable failure and decoding
// again, until it conforms or a failure needs outside input. Every attempt after the
// first follows exactly one patch.
func (v *Verifier) Verify(doc *document.Document) (*Outcome, error) {
	out := &Outcome{}
	for attempt := 1; ; attempt++ {
		if attempt > v.maxIterations {
			return nil, &ContractError{
				Path:        pointer.Root(),
				Description: fmt.Sprintf("document still failing after %d decode attempts", v.maxIterations),
			}
		}

		value, err := v.decoder.Decode(doc.Root())
		if err == nil {
			out.Value = value
			v.logger.Debug("Document conforms",
				zap.Int("attempts", attempt),
				zap.Int("patches", len(out.Patches)))
			return out, nil
		}

		var defect *types.Defect
		if !errors.As(err, &defect) {
			return nil, decoderFault(err)
		}

		patch, hole, err := v.classify(defect)
		if err != nil {
			return nil, err
		}
		if patch != nil {
			changed, err := doc.MergeAt(patch.Path, patch.Value)
			if err != nil {
				return nil, &ContractError{
					Path:        patch.Path,
					Description: "patch could not be scaffolded",
					Cause:       err,
				}
			}
			if !changed {
				return nil, &ContractError{
					Path:        patch.Path,
					Description: "patch left the document unchanged",
					Cause:       defect,
				}
			}
			out.Patches = append(out.Patches, *patch)
			v.logger.Debug("Patched document",
				zap.Stringer("kind", defect.Kind),
				zap.String("path", patch.Path.String()))
		}
		if hole != nil {
			out.Hole = *hole
			out.Defect = defect
			v.logger.Debug("Found hole",
				zap.Stringer("kind", defect.Kind),
				zap.String("path", hole.String()))
			return out, nil
		}
	}
}

// classify decides how to handle a defect: a patch to merge before retrying, a hole
// that ends the pass, or both.
func (v *Verifier) classify(d *types.Defect) (*Patch, *pointer.Path, error) {
	switch d.Kind {
	case types.DefectMissingField:
		return &Patch{Kind: d.Kind, Path: d.Location(), Value: map[string]any{}}, nil, nil

	case types.DefectUntaggedUnionMismatch:
		return &Patch{Kind: d.Kind, Path: d.Path, Value: ""}, nil, nil

	case types.DefectInvalidFormattedString:
		sentinel, ok := v.formatSentinels[d.Format]
		if !ok {
			return nil, nil, &ContractError{
				Path:        d.Path,
				Description: fmt.Sprintf("no sentinel for string format %q", d.Format),
				Cause:       d,
			}
		}
		return &Patch{Kind: d.Kind, Path: d.Path, Value: sentinel}, nil, nil

	case types.DefectInvalidFixedValue:
		if !v.isKnownLiteral(d.Literal) {
			return nil, nil, &ContractError{
				Path:        d.Path,
				Description: fmt.Sprintf("unexpected fixed value %v", d.Literal),
				Cause:       d,
			}
		}
		// A bare literal belongs in an array slot; elsewhere the field is a list led by it.
		var value any = []any{d.Literal}
		if _, isIndex := d.Path.Last().Index(); isIndex {
			value = d.Literal
		}
		return &Patch{Kind: d.Kind, Path: d.Path, Value: value}, nil, nil

	case types.DefectTypeMismatch:
		if d.Shape == types.MismatchObjectForSequence {
			hole := d.Path.AppendIndex(0)
			return &Patch{Kind: d.Kind, Path: d.Path, Value: []any{Placeholder}}, &hole, nil
		}
		hole := d.Path
		return nil, &hole, nil

	default:
		return nil, nil, &ContractError{Path: d.Path, Description: fmt.Sprintf("unhandled defect kind %s", d.Kind), Cause: d}
	}
}

func (v *Verifier) isKnownLiteral(lit any) bool {
	for _, known := range v.knownLiterals {
		if reflect.DeepEqual(known, lit) {
			return true
		}
	}
	return false
}

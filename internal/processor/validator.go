package processor

import (
	"fmt"
	"strings"

	apperrors "github.com/osmquery/overpass-gen/internal/errors"

	"github.com/osmquery/overpass-gen/internal/overpass"
)

// ValidatedQuery is the validator's successful output: the rendered query,
// the structured constraint behind it, and any soft diagnostics gathered
// along the pipeline.
type ValidatedQuery struct {
	Query       string                          `json:"query"`
	Constraint  overpass.QueryConstraint        `json:"constraint"`
	Diagnostics []overpass.ValidationDiagnostic `json:"diagnostics,omitempty"`
}

// Validator runs structural, semantic and tag-grounding checks over a
// rendered query before it is returned to the caller
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate runs the three passes in order and fails fast on the first hard
// fault. Soft diagnostics from tag grounding are attached to the result,
// never escalated.
func (v *Validator) Validate(query string, qc overpass.QueryConstraint, soft []overpass.ValidationDiagnostic) (*ValidatedQuery, error) {
	if err := v.checkStructure(query); err != nil {
		return nil, err
	}
	if err := qc.Validate(); err != nil {
		return nil, apperrors.NewSemanticError(err)
	}
	return &ValidatedQuery{
		Query:       query,
		Constraint:  qc,
		Diagnostics: soft,
	}, nil
}

// checkStructure verifies the rendered text's shape: balanced brackets,
// exactly one header, at most one area assignment, exactly one union block
// and exactly one trailer. Comment lines are stripped first and never
// inspected.
func (v *Validator) checkStructure(query string) error {
	stripped := stripComments(query)

	if err := checkBalanced(stripped); err != nil {
		return err
	}

	counts := map[string]int{
		"header":  0,
		"area":    0,
		"open":    0,
		"close":   0,
		"body":    strings.Count(stripped, "out body;"),
		"recurse": 0,
		"skel":    strings.Count(stripped, "out skel qt;"),
	}
	statements := 0
	for _, line := range strings.Split(stripped, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "[out:"):
			counts["header"]++
		case strings.HasPrefix(trimmed, "area["):
			counts["area"]++
		case trimmed == "(":
			counts["open"]++
		case trimmed == ");":
			counts["close"]++
		case trimmed == ">;":
			counts["recurse"]++
		case strings.HasPrefix(trimmed, "node") || strings.HasPrefix(trimmed, "way") || strings.HasPrefix(trimmed, "relation"):
			statements++
		}
	}

	switch {
	case counts["header"] != 1:
		return apperrors.NewStructuralError(fmt.Sprintf("expected exactly one header, found %d", counts["header"]), query)
	case counts["area"] > 1:
		return apperrors.NewStructuralError(fmt.Sprintf("expected at most one area assignment, found %d", counts["area"]), query)
	case counts["open"] != 1 || counts["close"] != 1:
		return apperrors.NewStructuralError("expected exactly one union block", query)
	case statements == 0:
		return apperrors.NewStructuralError("union block contains no filtered statements", query)
	case counts["body"] != 1 || counts["recurse"] != 1 || counts["skel"] != 1:
		return apperrors.NewStructuralError("expected exactly one trailer (out body; >; out skel qt;)", query)
	}
	return nil
}

// stripComments removes // comment lines.
func stripComments(query string) string {
	var kept []string
	for _, line := range strings.Split(query, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "//") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// checkBalanced verifies bracket pairing outside quoted strings.
func checkBalanced(query string) error {
	var stack []byte
	pairs := map[byte]byte{')': '(', ']': '[', '}': '{'}
	inString := false
	escaped := false

	for i := 0; i < len(query); i++ {
		c := query[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '(', '[', '{':
			stack = append(stack, c)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[c] {
				return apperrors.NewStructuralError(fmt.Sprintf("unbalanced %q at offset %d", string(c), i), query)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if inString {
		return apperrors.NewStructuralError("unterminated string literal", query)
	}
	if len(stack) > 0 {
		return apperrors.NewStructuralError(fmt.Sprintf("unclosed %q", string(stack[len(stack)-1])), query)
	}
	return nil
}

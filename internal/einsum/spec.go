package einsum

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// Separator delimits the segments of a subscript string:
// inputs, optional transform expressions, and outputs.
const Separator = "->"

// RawSpec is a contraction specification before normalization: labels
// are still spelled as the caller wrote them. It is produced by Parse
// from a subscript string, or built directly when the operand specs are
// already explicit label lists.
type RawSpec struct {
	// Inputs holds one label per tensor axis, per input operand.
	Inputs [][]string
	// Transforms holds per-output transform expression text, by
	// position. Missing entries use the default sum-of-products rule.
	Transforms []string
	// Outputs holds one label per output axis, per output. When
	// HasOutputs is false it is ignored and the output defaults to the
	// ascending sorted union of all input labels.
	Outputs    [][]string
	HasOutputs bool
}

// Spec is a normalized contraction specification: every distinct label
// is replaced by a small integer id assigned in order of first
// appearance, inputs scanned before outputs. Two raw specs that differ
// only in label spelling normalize to the same Spec, which is what
// makes compiled kernels shareable across spellings.
type Spec struct {
	Inputs  [][]int
	Outputs [][]int
	// Transforms has one entry per output; nil means the default
	// "accumulate the product of all input elements" rule.
	Transforms []*Transform
	// Labels maps each id back to its first-seen spelling, for
	// diagnostics only.
	Labels []string
}

// NumIDs returns the number of distinct index ids in the spec.
func (s *Spec) NumIDs() int {
	return len(s.Labels)
}

// Parse parses a subscript string such as "ij,jk->ik" into a normalized
// specification.
//
// Segments are separated by "->": inputs alone, inputs->outputs, or
// inputs->transforms->outputs. Operand specs are comma-separated bare
// alphabetic tokens, exploded one label per character. With no
// separator at all, the single default output is the ascending sorted
// union of all input labels. A lone separator with an empty right side
// declares one scalar output (full reduction).
func Parse(subscripts string) (*Spec, error) {
	segments := strings.Split(subscripts, Separator)
	if len(segments) > 3 {
		return nil, errors.Wrapf(ErrMalformedSpec, "%q: separator %q appears more than twice", subscripts, Separator)
	}

	raw := RawSpec{}
	var err error
	if raw.Inputs, err = parseOperandSegment(segments[0]); err != nil {
		return nil, errors.Wrapf(err, "%q", subscripts)
	}

	switch len(segments) {
	case 1:
		// No separator: the output defaults in Normalize.
	case 2:
		raw.HasOutputs = true
		if raw.Outputs, err = parseOperandSegment(segments[1]); err != nil {
			return nil, errors.Wrapf(err, "%q", subscripts)
		}
	case 3:
		raw.HasOutputs = true
		raw.Transforms = splitTopLevel(segments[1])
		if raw.Outputs, err = parseOperandSegment(segments[2]); err != nil {
			return nil, errors.Wrapf(err, "%q", subscripts)
		}
	}

	spec, err := raw.Normalize()
	if err != nil {
		return nil, errors.Wrapf(err, "%q", subscripts)
	}
	return spec, nil
}

// parseOperandSegment explodes a comma-separated list of bare
// alphabetic tokens into per-axis label lists. An empty token denotes a
// rank-0 (scalar) operand spec.
func parseOperandSegment(segment string) ([][]string, error) {
	tokens := strings.Split(segment, ",")
	specs := make([][]string, len(tokens))
	for i, token := range tokens {
		token = strings.TrimSpace(token)
		labels := make([]string, 0, len(token))
		for _, r := range token {
			if !unicode.IsLetter(r) {
				return nil, errors.Wrapf(ErrMalformedSpec, "operand spec %q: non-alphabetic character %q", token, r)
			}
			labels = append(labels, string(r))
		}
		specs[i] = labels
	}
	return specs, nil
}

// splitTopLevel splits on commas that are not nested inside
// parentheses, so transform expressions may contain argument lists.
func splitTopLevel(segment string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range segment {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(segment[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(segment[start:]))
	if len(parts) == 1 && parts[0] == "" {
		return nil
	}
	return parts
}

// Normalize alpha-renames the raw spec's labels to integer ids and
// fills in defaulted outputs and transforms.
func (r RawSpec) Normalize() (*Spec, error) {
	ids := make(map[string]int)
	var labels []string
	assign := func(label string) int {
		id, ok := ids[label]
		if !ok {
			id = len(labels)
			ids[label] = id
			labels = append(labels, label)
		}
		return id
	}

	spec := &Spec{Inputs: make([][]int, len(r.Inputs))}
	for i, in := range r.Inputs {
		spec.Inputs[i] = make([]int, len(in))
		for axis, label := range in {
			spec.Inputs[i][axis] = assign(label)
		}
	}

	outputs := r.Outputs
	if !r.HasOutputs {
		// The defaulted output is sorted by label spelling, not by
		// order of appearance.
		seen := make(map[string]bool)
		var union []string
		for _, in := range r.Inputs {
			for _, label := range in {
				if !seen[label] {
					seen[label] = true
					union = append(union, label)
				}
			}
		}
		sort.Strings(union)
		outputs = [][]string{union}
	}
	if len(outputs) == 0 {
		outputs = [][]string{{}}
	}

	spec.Outputs = make([][]int, len(outputs))
	for k, out := range outputs {
		spec.Outputs[k] = make([]int, len(out))
		for axis, label := range out {
			if _, ok := ids[label]; !ok {
				return nil, errors.Wrapf(ErrConsistency, "output %d references label %q absent from every input", k, label)
			}
			spec.Outputs[k][axis] = assign(label)
		}
	}

	if len(r.Transforms) > len(spec.Outputs) {
		return nil, errors.Wrapf(ErrMalformedSpec, "%d transforms for %d outputs", len(r.Transforms), len(spec.Outputs))
	}
	spec.Transforms = make([]*Transform, len(spec.Outputs))
	for k, expr := range r.Transforms {
		if expr == "" {
			continue
		}
		tf, err := ParseTransform(expr, len(spec.Inputs), len(spec.Outputs))
		if err != nil {
			return nil, err
		}
		spec.Transforms[k] = tf
	}

	spec.Labels = labels
	return spec, nil
}

// Raw converts the normalized spec back to a RawSpec whose labels are
// the canonical id spellings. Normalizing the result reproduces the
// same id assignment, which is the round-trip property tests rely on.
func (s *Spec) Raw() RawSpec {
	raw := RawSpec{
		Inputs:     make([][]string, len(s.Inputs)),
		Outputs:    make([][]string, len(s.Outputs)),
		HasOutputs: true,
	}
	for i, in := range s.Inputs {
		raw.Inputs[i] = make([]string, len(in))
		for axis, id := range in {
			raw.Inputs[i][axis] = idLabel(id)
		}
	}
	for k, out := range s.Outputs {
		raw.Outputs[k] = make([]string, len(out))
		for axis, id := range out {
			raw.Outputs[k][axis] = idLabel(id)
		}
	}
	for _, tf := range s.Transforms {
		if tf == nil {
			raw.Transforms = append(raw.Transforms, "")
		} else {
			raw.Transforms = append(raw.Transforms, tf.String())
		}
	}
	return raw
}

// idLabel spells an id as a lowercase letter, wrapping past 'z'.
func idLabel(id int) string {
	if id < 26 {
		return string(rune('a' + id))
	}
	return string(rune('A'+(id-26)%26)) + strconv.Itoa(id/26)
}

// Key returns the canonical cache key for the normalized spec. Specs
// with identical label-repetition structure and transforms share a key
// regardless of original spelling.
func (s *Spec) Key() string {
	var b strings.Builder
	writeIDSpecs := func(specs [][]int) {
		for i, sp := range specs {
			if i > 0 {
				b.WriteByte(',')
			}
			for axis, id := range sp {
				if axis > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(strconv.Itoa(id))
			}
		}
	}
	writeIDSpecs(s.Inputs)
	b.WriteString(Separator)
	for k, tf := range s.Transforms {
		if k > 0 {
			b.WriteByte(',')
		}
		if tf != nil {
			b.WriteString(tf.String())
		}
	}
	b.WriteString(Separator)
	writeIDSpecs(s.Outputs)
	return b.String()
}

// String renders the spec with canonical letter labels, e.g.
// "ab,bc->(…)->ac".
func (s *Spec) String() string {
	raw := s.Raw()
	var b strings.Builder
	writeSpecs := func(specs [][]string) {
		for i, sp := range specs {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strings.Join(sp, ""))
		}
	}
	writeSpecs(raw.Inputs)
	hasTransforms := false
	for _, tf := range raw.Transforms {
		if tf != "" {
			hasTransforms = true
		}
	}
	if hasTransforms {
		b.WriteString(Separator)
		b.WriteString(strings.Join(raw.Transforms, ","))
	}
	b.WriteString(Separator)
	writeSpecs(raw.Outputs)
	return b.String()
}

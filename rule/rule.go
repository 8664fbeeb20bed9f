package rule

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/outofforest/hashlife/types"
)

// Conway is the standard B3/S23 rule.
var Conway = Rule{
	Birth:    1 << 3,
	Survival: 1<<2 | 1<<3,
}

// Rule is the outer totalistic rule of 2-state automaton on Moore neighbourhood.
// Bit i of Birth (Survival) is set if dead (alive) cell with i alive neighbours is alive in the next generation.
type Rule struct {
	Birth    uint16
	Survival uint16
}

// Parse parses rule given in B/S notation ("B3/S23") or in legacy S/B notation ("23/3").
func Parse(s string) (Rule, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Rule{}, errors.Wrap(types.ErrInvalidArgument, "empty rule")
	}

	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return Rule{}, errors.Wrapf(types.ErrInvalidArgument, "rule %q must have exactly two parts", s)
	}

	var birth, survival string
	switch p0, p1 := strings.ToUpper(parts[0]), strings.ToUpper(parts[1]); {
	case strings.HasPrefix(p0, "B") && strings.HasPrefix(p1, "S"):
		birth, survival = p0[1:], p1[1:]
	case strings.HasPrefix(p0, "S") && strings.HasPrefix(p1, "B"):
		survival, birth = p0[1:], p1[1:]
	default:
		survival, birth = p0, p1
	}

	var r Rule
	var err error
	if r.Birth, err = parseCounts(birth); err != nil {
		return Rule{}, errors.WithMessagef(err, "rule %q", s)
	}
	if r.Survival, err = parseCounts(survival); err != nil {
		return Rule{}, errors.WithMessagef(err, "rule %q", s)
	}
	if err := r.Validate(); err != nil {
		return Rule{}, err
	}
	return r, nil
}

// MustParse parses the rule and panics on error.
func MustParse(s string) Rule {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

// Validate checks that rule keeps empty background empty.
func (r Rule) Validate() error {
	if r.Birth&1 != 0 {
		return errors.Wrap(types.ErrInvalidArgument, "rules with B0 are not supported")
	}
	if r.Birth>>9 != 0 || r.Survival>>9 != 0 {
		return errors.Wrap(types.ErrInvalidArgument, "neighbour count above 8")
	}
	return nil
}

// Next returns the state of the cell in the next generation.
func (r Rule) Next(alive bool, neighbours int) bool {
	if alive {
		return r.Survival&(1<<neighbours) != 0
	}
	return r.Birth&(1<<neighbours) != 0
}

// String returns the rule in B/S notation.
func (r Rule) String() string {
	var sb strings.Builder
	sb.WriteString("B")
	writeCounts(&sb, r.Birth)
	sb.WriteString("/S")
	writeCounts(&sb, r.Survival)
	return sb.String()
}

// Legacy returns the rule in S/B notation used by old pattern formats ("23/3").
func (r Rule) Legacy() string {
	var sb strings.Builder
	writeCounts(&sb, r.Survival)
	sb.WriteString("/")
	writeCounts(&sb, r.Birth)
	return sb.String()
}

func parseCounts(s string) (uint16, error) {
	var mask uint16
	for _, ch := range s {
		if ch < '0' || ch > '8' {
			return 0, errors.Wrapf(types.ErrInvalidArgument, "invalid neighbour count %q", ch)
		}
		mask |= 1 << (ch - '0')
	}
	return mask, nil
}

func writeCounts(sb *strings.Builder, mask uint16) {
	for i := range 9 {
		if mask&(1<<i) != 0 {
			sb.WriteByte(byte('0' + i))
		}
	}
}

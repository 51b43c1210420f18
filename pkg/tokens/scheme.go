package tokens

// Scheme names a tokenizer encoding. The set is closed: only the three
// constants below are valid.
type Scheme string

const (
	Cl100kBase Scheme = "cl100k_base"
	P50kBase   Scheme = "p50k_base"
	R50kBase   Scheme = "r50k_base"
)

var schemes = [...]Scheme{Cl100kBase, P50kBase, R50kBase}

// Schemes returns the supported encodings in display order.
func Schemes() []Scheme {
	out := make([]Scheme, len(schemes))
	copy(out, schemes[:])
	return out
}

// valid reports whether s is one of the supported encodings.
func (s Scheme) valid() bool {
	for _, known := range schemes {
		if s == known {
			return true
		}
	}
	return false
}

func (s Scheme) String() string { return string(s) }

// Tally accumulates a token count per scheme.
type Tally map[Scheme]int

// NewTally returns a tally with every scheme present at zero.
func NewTally() Tally {
	t := make(Tally, len(schemes))
	for _, s := range schemes {
		t[s] = 0
	}
	return t
}

// Merge adds other's counts into t.
func (t Tally) Merge(other Tally) {
	for s, n := range other {
		t[s] += n
	}
}

// Encoder reports how many tokens a scheme's tokenizer produces for text. It
// must be a pure function of its arguments.
type Encoder interface {
	Count(scheme Scheme, text string) int
}

// EncoderFunc adapts an ordinary function to the Encoder interface.
type EncoderFunc func(scheme Scheme, text string) int

func (f EncoderFunc) Count(scheme Scheme, text string) int { return f(scheme, text) }

package synth

const (
	lcgMultiplier = 16807
	lcgModulus    = 2147483647
)

// LCG is the Park–Miller minimal standard generator. Each series owns its own
// instance so independent series never share a stream.
type LCG struct {
	state int64
}

// NewLCG seeds the generator. Seeds outside (0, modulus) are folded into range;
// a zero state would stick at zero forever.
func NewLCG(seed int64) *LCG {
	s := seed % lcgModulus
	if s <= 0 {
		s += lcgModulus - 1
	}
	return &LCG{state: s}
}

// Next advances the stream and returns a value in [0, 1).
func (g *LCG) Next() float64 {
	g.state = (g.state * lcgMultiplier) % lcgModulus
	return float64(g.state-1) / (lcgModulus - 1)
}

func (g *LCG) State() int64 { return g.state }

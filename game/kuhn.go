package game

// Kuhn implements the classic 3-card toy poker game: antes of 1, a single
// bet size of 1, terminal histories {cc, bc, bf, cbc, cbf}. Cards are
// ranked 0 (Jack) < 1 (Queen) < 2 (King).
type Kuhn struct{}

// NewKuhn returns a Kuhn game instance. Kuhn has no configuration.
func NewKuhn() *Kuhn { return &Kuhn{} }

func (Kuhn) GameConstant() float64 { return 0 }

func (k Kuhn) InitialState() State {
	return kuhnState{dealt: false}
}

type kuhnState struct {
	dealt        bool
	card0, card1 int
	history      string
}

var kuhnDeals = [][2]int{
	{0, 1}, {0, 2}, {1, 0}, {1, 2}, {2, 0}, {2, 1},
}

func (s kuhnState) ChanceOutcomes() []ChanceOutcome {
	out := make([]ChanceOutcome, 0, len(kuhnDeals))
	for _, d := range kuhnDeals {
		out = append(out, ChanceOutcome{
			State: kuhnState{dealt: true, card0: d[0], card1: d[1]},
			Prob:  1.0 / float64(len(kuhnDeals)),
		})
	}
	return out
}

func (s kuhnState) IsTerminal() bool {
	if !s.dealt {
		return false
	}
	switch s.history {
	case "cc", "bc", "bf", "cbc", "cbf":
		return true
	default:
		return false
	}
}

func (s kuhnState) CurrentPlayer() Player {
	if !s.dealt {
		return Chance
	}
	if s.IsTerminal() {
		return None
	}
	// Player 0 acts on even-length histories, player 1 on odd.
	if len(s.history)%2 == 0 {
		return Player0
	}
	return Player1
}

func (s kuhnState) LegalActions() []Action {
	if !s.dealt || s.IsTerminal() {
		return nil
	}
	facingBet := len(s.history) > 0 && s.history[len(s.history)-1] == 'b'
	if facingBet {
		return []Action{{Label: 'c'}, {Label: 'f'}}
	}
	return []Action{{Label: 'c'}, {Label: 'b'}}
}

func (s kuhnState) Next(a Action) State {
	next := s
	next.history = s.history + string(a.Label)
	return next
}

// InfoSetKey identifies the information set for the given player: their
// own card plus the action history so far.
func (s kuhnState) InfoSetKey(player int) string {
	card := s.card0
	if player == 1 {
		card = s.card1
	}
	return kuhnCardLetter(card) + "|" + s.history
}

func kuhnCardLetter(c int) string {
	switch c {
	case 0:
		return "J"
	case 1:
		return "Q"
	default:
		return "K"
	}
}

// kuhnContributions gives each player's total chips committed (ante
// included) for each of the five terminal histories.
var kuhnContributions = map[string][2]int{
	"cc":  {1, 1},
	"bc":  {2, 2},
	"bf":  {2, 1},
	"cbc": {2, 2},
	"cbf": {1, 2},
}

// TerminalUtility returns the utility for player in chips, zero-sum.
func (s kuhnState) TerminalUtility(player int) float64 {
	contrib := kuhnContributions[s.history]
	contrib0, contrib1 := contrib[0], contrib[1]

	var util0 float64
	switch s.history {
	case "bf":
		util0 = float64(contrib1)
	case "cbf":
		util0 = -float64(contrib0)
	default:
		// Showdown: cc, bc, cbc.
		if s.card0 > s.card1 {
			util0 = float64(contrib1)
		} else {
			util0 = -float64(contrib0)
		}
	}

	if player == 0 {
		return util0
	}
	return -util0
}

func (s kuhnState) Fingerprint() uint64 {
	var h uint64 = 1469598103934665603
	for _, b := range []byte(s.history) {
		h ^= uint64(b)
		h *= 1099511628211
	}
	h ^= uint64(s.card0) << 1
	h ^= uint64(s.card1) << 4
	if s.dealt {
		h ^= 1 << 8
	}
	return h
}

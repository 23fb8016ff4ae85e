// Package game defines the capability set every solvable game must expose,
// and the two concrete games the core ships: Kuhn poker and a river-only
// no-limit Holdem betting tree over fixed ranges.
package game

// Player identifies whose turn it is at a state.
type Player int

const (
	Player0 Player = 0
	Player1 Player = 1
	Chance  Player = 2
	None    Player = -1
)

// Action is a single decision taken at a state. Label is the token family
// ('c' check/call, 'b' bet, 'r' raise, 'f' fold); Amount is the total
// contribution the action brings the acting player to, when relevant.
type Action struct {
	Label  byte
	Amount int
}

// Token returns the display/keying token for the action: "c", "f", or
// "{b|r}{amount}".
func (a Action) Token() string {
	switch a.Label {
	case 'c', 'f':
		return string(a.Label)
	default:
		return string(a.Label) + itoa(a.Amount)
	}
}

// ChanceOutcome pairs a resulting state with its probability.
type ChanceOutcome struct {
	State State
	Prob  float64
}

// State is the capability set a game tree node exposes. States are value-
// like: Next returns a fresh state rather than mutating the receiver, and
// states must be usable as map keys via Fingerprint.
type State interface {
	IsTerminal() bool
	CurrentPlayer() Player
	LegalActions() []Action
	ChanceOutcomes() []ChanceOutcome
	Next(a Action) State
	InfoSetKey(player int) string
	TerminalUtility(player int) float64
	Fingerprint() uint64
}

// Game constructs the root state for a solvable game.
type Game interface {
	InitialState() State
	// GameConstant is the amount both players implicitly contribute to the
	// subgame before it begins, used to correct exploitability for that
	// sunk pot; zero for Kuhn, the base pot for the river game.
	GameConstant() float64
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

package game

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/lox/cfrsolver/cards"
)

// RangeHand is one weighted combo in a player's configured range: two hole
// cards plus a non-negative weight. Strength is filled in by the river
// game at construction time.
type RangeHand struct {
	C1, C2   cards.Card
	Weight   float64
	Strength cards.Strength
}

func (h RangeHand) Cards() cards.Hand { return cards.NewHand(h.C1, h.C2) }

// Token returns the 4-character hole-card token ("AhKd") used to key
// per-hand information sets, e.g. for external-sampling MCCFR.
func (h RangeHand) Token() string { return h.C1.String() + h.C2.String() }

// RiverConfig is the resolved, validated configuration for a river-only
// betting tree. subgame.Build produces one of these from external input.
type RiverConfig struct {
	Board        cards.Hand
	Pot          int
	Stacks       [2]int
	BetSizes     []float64
	FirstBets    [2][]float64 // per player (0=OOP, 1=IP); falls back to BetSizes when empty
	FirstRaises  [2][]float64
	NextRaises   [2][]float64
	IncludeAllIn bool
	MaxRaises    int
	Ranges       [2][]RangeHand
}

// River implements the postflop-only betting tree. A River instance is
// single-owner per trainer: it lazily memoizes legal-action computation
// keyed by history.
type River struct {
	cfg RiverConfig

	mu         sync.Mutex
	legalCache map[string][]Action
	nodeCache  map[string]riverNode
}

// NewRiver wraps an already-validated RiverConfig. Use subgame.Build to
// construct one from external (JSON) configuration with validation.
func NewRiver(cfg RiverConfig) *River {
	return &River{
		cfg:        cfg,
		legalCache: make(map[string][]Action),
		nodeCache:  make(map[string]riverNode),
	}
}

func (r *River) GameConstant() float64 { return float64(r.cfg.Pot) }

func (r *River) Config() RiverConfig { return r.cfg }

// riverNode is the result of replaying a history: contributions, acting
// player, consecutive checks, raises, and terminal winner (if any).
type riverNode struct {
	contrib    [2]int
	acting     Player
	checks     int
	raises     int
	terminal   bool
	foldWinner int // -1 if terminal was not caused by a fold
}

// HistoryToken returns the display/keying token for a full action history,
// the same token riverState.InfoSetKey embeds after the hero's hole cards.
// Exported for the vector trainers, which key vector infosets on history
// alone (shared across every hand in a range) rather than per-deal state.
func HistoryToken(actions []Action) string {
	return historyKey(actions)
}

func historyKey(actions []Action) string {
	var b strings.Builder
	for i, a := range actions {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(a.Token())
	}
	return b.String()
}

func (r *River) replay(actions []Action) riverNode {
	key := historyKey(actions)

	r.mu.Lock()
	if n, ok := r.nodeCache[key]; ok {
		r.mu.Unlock()
		return n
	}
	r.mu.Unlock()

	node := riverNode{acting: Player0, foldWinner: -1}
	for _, a := range actions {
		p := int(node.acting)
		switch a.Label {
		case 'f':
			node.terminal = true
			node.foldWinner = 1 - p
		case 'c':
			currentBet := maxC(node.contrib[0], node.contrib[1])
			if node.contrib[p] == currentBet {
				node.checks++
				if node.checks >= 2 {
					node.terminal = true
				}
			} else {
				node.contrib[p] = currentBet
				node.terminal = true
			}
		case 'b', 'r':
			node.contrib[p] = a.Amount
			node.checks = 0
			node.raises++
		}
		if node.terminal {
			break
		}
		node.acting = Player(1 - p)
	}
	if node.terminal {
		node.acting = None
	}

	r.mu.Lock()
	r.nodeCache[key] = node
	r.mu.Unlock()
	return node
}

// LegalActions returns the memoized legal action list at the given history.
func (r *River) LegalActions(actions []Action) []Action {
	key := historyKey(actions)

	r.mu.Lock()
	if cached, ok := r.legalCache[key]; ok {
		r.mu.Unlock()
		return cached
	}
	r.mu.Unlock()

	node := r.replay(actions)
	out := r.legalActionsForNode(node)

	r.mu.Lock()
	r.legalCache[key] = out
	r.mu.Unlock()
	return out
}

func (r *River) legalActionsForNode(node riverNode) []Action {
	if node.terminal {
		return nil
	}
	p := int(node.acting)
	currentBet := maxC(node.contrib[0], node.contrib[1])
	potOnTable := r.cfg.Pot + node.contrib[0] + node.contrib[1]
	maxTotal := r.cfg.Stacks[p]

	var out []Action
	facingBet := node.contrib[p] < currentBet

	if !facingBet {
		out = append(out, Action{Label: 'c'})
		if node.raises < r.cfg.MaxRaises && maxTotal > 0 {
			fracs := r.cfg.FirstBets[p]
			if len(fracs) == 0 {
				fracs = r.cfg.BetSizes
			}
			out = append(out, r.sizedActions('b', fracs, potOnTable, 0, currentBet, maxTotal)...)
		}
	} else {
		out = append(out, Action{Label: 'c'}, Action{Label: 'f'})
		if node.raises < r.cfg.MaxRaises {
			callAmount := currentBet - node.contrib[p]
			var fracs []float64
			if node.raises == 1 {
				fracs = r.cfg.FirstRaises[p]
			} else {
				fracs = r.cfg.NextRaises[p]
			}
			if len(fracs) == 0 {
				fracs = r.cfg.BetSizes
			}
			out = append(out, r.sizedActions('r', fracs, potOnTable, callAmount, currentBet, maxTotal)...)
		}
	}

	return out
}

// sizedActions computes bet/raise totals from pot-fraction sizings,
// deduplicated and sorted ascending, plus an all-in action when
// configured. Raise sizings apply to the pot after calling, and the
// resulting total is the opponent's bet matched plus the raise on top. A
// sizing that meets or exceeds the stack is clamped to the stack total and
// kept rather than dropped.
func (r *River) sizedActions(label byte, fracs []float64, potOnTable, callAmount, currentBet, maxTotal int) []Action {
	seen := make(map[int]struct{}, len(fracs)+1)
	var out []Action
	potAfterCall := potOnTable + callAmount
	for _, frac := range fracs {
		if frac <= 0 {
			continue
		}
		sized := int(math.Round(float64(potAfterCall) * frac))
		total := currentBet + sized
		if total >= maxTotal {
			total = maxTotal
		}
		if total <= currentBet {
			continue
		}
		if _, dup := seen[total]; dup {
			continue
		}
		seen[total] = struct{}{}
		out = append(out, Action{Label: label, Amount: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Amount < out[j].Amount })

	if r.cfg.IncludeAllIn && maxTotal > currentBet {
		if _, dup := seen[maxTotal]; !dup {
			out = append(out, Action{Label: label, Amount: maxTotal})
		}
	}
	return out
}

// IsTerminal, ActingPlayer, and Contributions expose riverNode fields for
// the vector trainer (vcfr), which walks histories without building a
// RiverState per hero/opponent combo.
func (r *River) IsTerminal(actions []Action) bool   { return r.replay(actions).terminal }
func (r *River) ActingPlayer(actions []Action) Player { return r.replay(actions).acting }
func (r *River) FoldWinner(actions []Action) int    { return r.replay(actions).foldWinner }
func (r *River) Contributions(actions []Action) [2]int {
	return r.replay(actions).contrib
}
func (r *River) TotalPot(actions []Action) int {
	c := r.Contributions(actions)
	return r.cfg.Pot + c[0] + c[1]
}

// InitialState returns the chance node that deals hole cards to both
// players from their configured ranges.
func (r *River) InitialState() State {
	return riverState{game: r, dealt: false}
}

// DealtState constructs a scalar State for one concrete hole-card deal,
// bypassing full chance-outcome enumeration. Used by samplers (e.g.
// external-sampling MCCFR) that pick one deal per iteration instead of
// enumerating every combo.
func (r *River) DealtState(p0c1, p0c2, p1c1, p1c2 cards.Card) State {
	return riverState{
		game:  r,
		dealt: true,
		hole:  [2][2]cards.Card{{p0c1, p0c2}, {p1c1, p1c2}},
	}
}

// riverState is the scalar (per-combo) game.State implementation. It wraps
// one concrete hole-card assignment per player plus the action history.
type riverState struct {
	game    *River
	dealt   bool
	hole    [2][2]cards.Card
	actions []Action
}

func (s riverState) ChanceOutcomes() []ChanceOutcome {
	r := s.game
	var out []ChanceOutcome
	total := 0.0
	type combo struct {
		h0, h1 RangeHand
		w      float64
	}
	var combos []combo
	for _, h0 := range r.cfg.Ranges[0] {
		for _, h1 := range r.cfg.Ranges[1] {
			if h0.Cards().Overlaps(h1.Cards()) {
				continue
			}
			w := h0.Weight * h1.Weight
			if w <= 0 {
				continue
			}
			combos = append(combos, combo{h0, h1, w})
			total += w
		}
	}
	for _, c := range combos {
		out = append(out, ChanceOutcome{
			State: riverState{
				game:  r,
				dealt: true,
				hole:  [2][2]cards.Card{{c.h0.C1, c.h0.C2}, {c.h1.C1, c.h1.C2}},
			},
			Prob: c.w / total,
		})
	}
	return out
}

func (s riverState) IsTerminal() bool {
	return s.dealt && s.game.IsTerminal(s.actions)
}

func (s riverState) CurrentPlayer() Player {
	if !s.dealt {
		return Chance
	}
	if s.IsTerminal() {
		return None
	}
	return s.game.ActingPlayer(s.actions)
}

func (s riverState) LegalActions() []Action {
	if !s.dealt || s.IsTerminal() {
		return nil
	}
	return s.game.LegalActions(s.actions)
}

func (s riverState) Next(a Action) State {
	next := s
	next.actions = append(append([]Action(nil), s.actions...), a)
	return next
}

func (s riverState) InfoSetKey(player int) string {
	var b strings.Builder
	b.WriteString(s.hole[player][0].String())
	b.WriteString(s.hole[player][1].String())
	b.WriteByte('|')
	b.WriteString(historyKey(s.actions))
	return b.String()
}

func (s riverState) TerminalUtility(player int) float64 {
	r := s.game
	contrib := r.Contributions(s.actions)
	totalPot := r.TotalPot(s.actions)

	winner := r.FoldWinner(s.actions)
	if winner < 0 {
		h0 := cards.NewHand(s.hole[0][0], s.hole[0][1]) | r.cfg.Board
		h1 := cards.NewHand(s.hole[1][0], s.hole[1][1]) | r.cfg.Board
		s0 := cards.EvaluateSeven(h0)
		s1 := cards.EvaluateSeven(h1)
		switch {
		case s0 > s1:
			winner = 0
		case s1 > s0:
			winner = 1
		default:
			winner = -1
		}
	}

	var u [2]float64
	switch winner {
	case 0:
		u = [2]float64{float64(totalPot - contrib[0]), float64(-contrib[1])}
	case 1:
		u = [2]float64{float64(-contrib[0]), float64(totalPot - contrib[1])}
	default:
		half := float64(totalPot) / 2
		u = [2]float64{half - float64(contrib[0]), half - float64(contrib[1])}
	}
	return u[player]
}

func (s riverState) Fingerprint() uint64 {
	var h uint64 = 1469598103934665603
	mix := func(v uint64) {
		h ^= v
		h *= 1099511628211
	}
	mix(uint64(s.hole[0][0])<<8 | uint64(s.hole[0][1]))
	mix(uint64(s.hole[1][0])<<8 | uint64(s.hole[1][1]))
	for _, a := range s.actions {
		mix(uint64(a.Label)<<32 | uint64(uint32(a.Amount)))
	}
	return h
}

func maxC(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// ParseAmountToken parses a display/keying token ("c", "f", "b500", "r1200")
// back into an Action, the inverse of Action.Token. Exposed for external
// consumers that reconstruct histories from a persisted strategy dump.
func ParseAmountToken(tok string) (Action, bool) {
	if tok == "c" {
		return Action{Label: 'c'}, true
	}
	if tok == "f" {
		return Action{Label: 'f'}, true
	}
	if len(tok) < 2 {
		return Action{}, false
	}
	label := tok[0]
	if label != 'b' && label != 'r' {
		return Action{}, false
	}
	amt, err := strconv.Atoi(tok[1:])
	if err != nil {
		return Action{}, false
	}
	return Action{Label: label, Amount: amt}, true
}

package evaluate

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lox/cfrsolver/game"
	"github.com/lox/cfrsolver/profile"
	"github.com/lox/cfrsolver/vcfr"
)

// BestResponseVector computes brPlayer's best response over a river range
// game against a fixed vector profile for the opponent. Unlike the scalar
// case, each hero hand is its own information set here (it is never
// shared with another hand), so a single top-down traversal carrying a
// per-player reach vector suffices: at the BR player's nodes the action is
// chosen independently per hand (per-row argmax), and at the opponent's
// nodes reach is scaled componentwise by their fixed strategy.
//
// Values are computed raw (reach-weighted, unnormalized) all the way to
// the root exactly as vcfr.Trainer does during training, then normalized
// once at the end by each hero hand's valid opponent mass over the base
// (pre-strategy) range — the sum of opponent weight unblocked by that
// hand — to report a genuine expected-value-per-combo number. Raw values
// are what regret updates consume; the normalized form is only for
// reporting.
func BestResponseVector(river *game.River, prof profile.Vector, brPlayer int) ([]float64, profile.Vector, error) {
	rcfg := river.Config()
	r := &vectorResponder{
		river:    river,
		prof:     prof,
		brPlayer: brPlayer,
		policy:   make(profile.Vector),
	}

	reach0 := baseWeights(rcfg.Ranges[0])
	reach1 := baseWeights(rcfg.Ranges[1])
	raw, err := r.traverse(nil, [2][]float64{reach0, reach1})
	if err != nil {
		return nil, nil, err
	}

	opp := 1 - brPlayer
	idx := vcfr.BuildShowdown(rcfg.Ranges[opp])
	heroRange := rcfg.Ranges[brPlayer]
	out := make([]float64, len(heroRange))
	for h, hand := range heroRange {
		eq := idx.Equity(game.RangeHand{C1: hand.C1, C2: hand.C2, Weight: 1, Strength: hand.Strength})
		mass := eq.WinWeight + eq.TieWeight + eq.LoseWeight
		if mass <= 0 {
			out[h] = 0
			continue
		}
		out[h] = raw[h] / mass
	}
	return out, r.policy, nil
}

func baseWeights(hands []game.RangeHand) []float64 {
	out := make([]float64, len(hands))
	for i, h := range hands {
		out[i] = h.Weight
	}
	return out
}

type vectorResponder struct {
	river    *game.River
	prof     profile.Vector
	brPlayer int
	policy   profile.Vector
}

func (r *vectorResponder) traverse(actions []game.Action, reach [2][]float64) ([]float64, error) {
	river := r.river
	if river.IsTerminal(actions) {
		return r.terminalUtility(actions, reach), nil
	}

	acting := int(river.ActingPlayer(actions))
	legal := river.LegalActions(actions)
	numHands := len(reach[acting])

	actionUtils := make([][]float64, len(legal))
	for i, a := range legal {
		next := append(append([]game.Action(nil), actions...), a)
		nextReach := reach
		if acting != r.brPlayer {
			strategy, err := r.opponentStrategy(acting, actions, numHands, len(legal))
			if err != nil {
				return nil, err
			}
			scaled := make([]float64, numHands)
			for h := range scaled {
				scaled[h] = reach[acting][h] * strategy[h][i]
			}
			nextReach[acting] = scaled
		}
		au, err := r.traverse(next, nextReach)
		if err != nil {
			return nil, err
		}
		actionUtils[i] = au
	}

	out := make([]float64, numHands)
	if acting != r.brPlayer {
		for _, au := range actionUtils {
			for h := range out {
				out[h] += au[h]
			}
		}
		return out, nil
	}

	key := historyKeyFor(acting, actions)
	row := make([]float64, len(legal))
	policyRows, ok := r.policy[key]
	if !ok {
		policyRows = make([][]float64, numHands)
		r.policy[key] = policyRows
	}
	for h := 0; h < numHands; h++ {
		best := 0
		for i := 1; i < len(legal); i++ {
			if actionUtils[i][h] > actionUtils[best][h] {
				best = i
			}
		}
		out[h] = actionUtils[best][h]
		for i := range row {
			row[i] = 0
		}
		row[best] = 1.0
		policyRows[h] = append([]float64(nil), row...)
	}
	return out, nil
}

// opponentStrategy reads the fixed profile's strategy matrix at the
// opponent's history, falling back to uniform when the history was never
// visited. A present matrix with the wrong shape is a contract violation.
func (r *vectorResponder) opponentStrategy(player int, actions []game.Action, numHands, numActions int) ([][]float64, error) {
	key := historyKeyFor(player, actions)
	if m, ok := r.prof[key]; ok {
		if len(m) != numHands {
			return nil, fmt.Errorf("evaluate: profile matrix at %q has %d rows, want %d", key, len(m), numHands)
		}
		for h, row := range m {
			if len(row) != numActions {
				return nil, fmt.Errorf("evaluate: profile matrix at %q row %d has %d actions, want %d", key, h, len(row), numActions)
			}
		}
		return m, nil
	}
	v := 1.0 / float64(numActions)
	uniform := make([]float64, numActions)
	for i := range uniform {
		uniform[i] = v
	}
	out := make([][]float64, numHands)
	for h := range out {
		out[h] = uniform
	}
	return out, nil
}

func (r *vectorResponder) terminalUtility(actions []game.Action, reach [2][]float64) []float64 {
	river := r.river
	contrib := river.Contributions(actions)
	totalPot := river.TotalPot(actions)
	opp := 1 - r.brPlayer

	rcfg := river.Config()
	heroHands := rcfg.Ranges[r.brPlayer]
	out := make([]float64, len(heroHands))

	oppRange := make([]game.RangeHand, len(rcfg.Ranges[opp]))
	for i, h := range rcfg.Ranges[opp] {
		oppRange[i] = h
		oppRange[i].Weight = reach[opp][i]
	}
	idx := vcfr.BuildShowdown(oppRange)

	if winner := river.FoldWinner(actions); winner >= 0 {
		var payoff float64
		if winner == r.brPlayer {
			payoff = float64(totalPot - contrib[r.brPlayer])
		} else {
			payoff = float64(-contrib[r.brPlayer])
		}
		for h, hand := range heroHands {
			oppMass := idx.UnblockedMass(hand.C1, hand.C2)
			out[h] = payoff * oppMass
		}
		return out
	}

	winPayoff := float64(totalPot - contrib[r.brPlayer])
	losePayoff := float64(-contrib[r.brPlayer])
	half := float64(totalPot) / 2
	tiePayoff := half - float64(contrib[r.brPlayer])

	for h, hand := range heroHands {
		eq := idx.Equity(game.RangeHand{C1: hand.C1, C2: hand.C2, Weight: 1, Strength: hand.Strength})
		out[h] = eq.WinWeight*winPayoff + eq.TieWeight*tiePayoff + eq.LoseWeight*losePayoff
	}
	return out
}

func historyKeyFor(player int, actions []game.Action) string {
	key := game.HistoryToken(actions)
	if player == 0 {
		return "0|" + key
	}
	return "1|" + key
}

// ExploitabilityVector is Exploitability's river/vector-profile counterpart:
// the half-sum of both players' best-response values against prof, minus
// the river game's constant (the pot, since both players' contributions
// are already counted in each side's terminal payoff).
func ExploitabilityVector(river *game.River, prof profile.Vector) (float64, error) {
	var grp errgroup.Group
	var v0, v1 []float64
	grp.Go(func() error {
		var err error
		v0, _, err = BestResponseVector(river, prof, 0)
		return err
	})
	grp.Go(func() error {
		var err error
		v1, _, err = BestResponseVector(river, prof, 1)
		return err
	})
	if err := grp.Wait(); err != nil {
		return 0, err
	}

	rcfg := river.Config()
	avg0 := weightedBestResponseValue(v0, rcfg.Ranges[0], rcfg.Ranges[1])
	avg1 := weightedBestResponseValue(v1, rcfg.Ranges[1], rcfg.Ranges[0])
	return 0.5 * (avg0 + avg1 - river.GameConstant()), nil
}

// weightedBestResponseValue folds a per-hand value vector down to one
// number, weighting each hand by its range weight times the opponent mass
// it does not block — the joint probability the matchup is actually dealt.
// Weighting by range weight alone would overcount hands whose blockers
// remove most of the opponent's range.
func weightedBestResponseValue(values []float64, hands, opp []game.RangeHand) float64 {
	idx := vcfr.BuildShowdown(opp)
	total, weight := 0.0, 0.0
	for i, h := range hands {
		joint := h.Weight * idx.UnblockedMass(h.C1, h.C2)
		total += values[i] * joint
		weight += joint
	}
	if weight <= 0 {
		return 0
	}
	return total / weight
}

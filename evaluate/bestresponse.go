// Package evaluate computes best-response values and exploitability for a
// fixed strategy profile, compatible with both the scalar (per-deal) and
// vector (per-range) profile representations the trainers produce.
package evaluate

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lox/cfrsolver/game"
	"github.com/lox/cfrsolver/profile"
)

// reachOccurrence records one concrete state reaching a best-responding
// player's information set, and the counterfactual (opponent+chance)
// probability of reaching it.
type reachOccurrence struct {
	state game.State
	reach float64
}

// scalarResponder computes a best response for one player against a fixed
// scalar profile over a scalar (per-deal) game.
//
// The information set shared by many states (e.g. every hole-card deal
// that gives the BR player the same hand) can only be resolved once every
// occurrence's counterfactual reach has been gathered, since the game
// tree joins those occurrences only at an ancestor chance node. This is
// done in two conceptual sweeps glued together by memoization: enumerate
// first records every occurrence of every BR infoset (via a single,
// decision-free tree walk using the fixed profile for non-BR turns); value
// then evaluates the tree bottom-up, deciding each infoset's action lazily
// on first need from its fully gathered occurrence list and caching the
// decision, so no infoset is ever decided twice or from partial data.
type scalarResponder struct {
	prof     profile.Scalar
	brPlayer int

	occurrences map[string][]reachOccurrence
	bestAction  map[string]int
	values      map[uint64]float64
	policy      profile.Scalar
}

// BestResponseScalar returns brPlayer's expected value against prof (the
// fixed strategy for the other player, read from the same joint profile)
// and the derived pure best-response policy, one deterministic action per
// visited information set of brPlayer.
func BestResponseScalar(g game.Game, prof profile.Scalar, brPlayer int) (float64, profile.Scalar) {
	r := &scalarResponder{
		prof:        prof,
		brPlayer:    brPlayer,
		occurrences: make(map[string][]reachOccurrence),
		bestAction:  make(map[string]int),
		values:      make(map[uint64]float64),
		policy:      make(profile.Scalar),
	}
	root := g.InitialState()
	r.enumerate(root, 1.0)
	return r.value(root), r.policy
}

func (r *scalarResponder) enumerate(state game.State, reachOpp float64) {
	if state.IsTerminal() {
		return
	}
	if state.CurrentPlayer() == game.Chance {
		for _, oc := range state.ChanceOutcomes() {
			r.enumerate(oc.State, reachOpp*oc.Prob)
		}
		return
	}

	player := int(state.CurrentPlayer())
	actions := state.LegalActions()
	if player == r.brPlayer {
		key := state.InfoSetKey(player)
		r.occurrences[key] = append(r.occurrences[key], reachOccurrence{state, reachOpp})
		for _, a := range actions {
			r.enumerate(state.Next(a), reachOpp)
		}
		return
	}

	strat := r.opponentStrategy(state, player, actions)
	for i, a := range actions {
		r.enumerate(state.Next(a), reachOpp*strat[i])
	}
}

// opponentStrategy reads the fixed profile's strategy at a non-BR
// player's information set. A missing infoset falls back to uniform (the
// profile simply never visited it); a present row whose length disagrees
// with the number of legal actions is a contract violation and aborts.
func (r *scalarResponder) opponentStrategy(state game.State, player int, actions []game.Action) []float64 {
	key := state.InfoSetKey(player)
	if row, ok := r.prof[key]; ok {
		if len(row) != len(actions) {
			panic(fmt.Sprintf("evaluate: profile row length %d does not match %d legal actions at infoset %q", len(row), len(actions), key))
		}
		return row
	}
	out := make([]float64, len(actions))
	v := 1.0 / float64(len(actions))
	for i := range out {
		out[i] = v
	}
	return out
}

// value returns the BR player's value of state, memoized on the state
// fingerprint: decide may revisit the same subtree once per occurrence of
// an infoset, and without the cache that walk is exponential in depth.
func (r *scalarResponder) value(state game.State) float64 {
	if state.IsTerminal() {
		return state.TerminalUtility(r.brPlayer)
	}
	fp := state.Fingerprint()
	if v, ok := r.values[fp]; ok {
		return v
	}

	var total float64
	switch {
	case state.CurrentPlayer() == game.Chance:
		for _, oc := range state.ChanceOutcomes() {
			total += oc.Prob * r.value(oc.State)
		}
	case int(state.CurrentPlayer()) == r.brPlayer:
		actions := state.LegalActions()
		key := state.InfoSetKey(r.brPlayer)
		best, ok := r.bestAction[key]
		if !ok {
			best = r.decide(key, actions)
		}
		total = r.value(state.Next(actions[best]))
	default:
		player := int(state.CurrentPlayer())
		actions := state.LegalActions()
		strat := r.opponentStrategy(state, player, actions)
		for i, a := range actions {
			total += strat[i] * r.value(state.Next(a))
		}
	}
	r.values[fp] = total
	return total
}

// decide aggregates Σ occurrence.reach · value(next_state(occurrence, a))
// over every occurrence of key, then picks the action maximizing that sum
// (lowest index on a tie), caching the decision so it is made exactly
// once per infoset regardless of how many occurrences or callers reach it.
func (r *scalarResponder) decide(key string, actions []game.Action) int {
	sums := make([]float64, len(actions))
	for _, occ := range r.occurrences[key] {
		for i, a := range actions {
			sums[i] += occ.reach * r.value(occ.state.Next(a))
		}
	}
	best := 0
	for i := 1; i < len(sums); i++ {
		if sums[i] > sums[best] {
			best = i
		}
	}
	r.bestAction[key] = best
	row := make([]float64, len(actions))
	row[best] = 1.0
	r.policy[key] = row
	return best
}

// ExpectedValue returns player 0's expected value when both players follow
// prof, falling back to uniform at information sets the profile never
// visited. For a profile near equilibrium this is the game value.
func ExpectedValue(g game.Game, prof profile.Scalar) float64 {
	return profileValue(g.InitialState(), prof)
}

func profileValue(state game.State, prof profile.Scalar) float64 {
	if state.IsTerminal() {
		return state.TerminalUtility(0)
	}
	if state.CurrentPlayer() == game.Chance {
		total := 0.0
		for _, oc := range state.ChanceOutcomes() {
			total += oc.Prob * profileValue(oc.State, prof)
		}
		return total
	}
	player := int(state.CurrentPlayer())
	actions := state.LegalActions()
	strat, ok := prof[state.InfoSetKey(player)]
	if !ok {
		uniform := make([]float64, len(actions))
		v := 1.0 / float64(len(actions))
		for i := range uniform {
			uniform[i] = v
		}
		strat = uniform
	}
	total := 0.0
	for i, a := range actions {
		total += strat[i] * profileValue(state.Next(a), prof)
	}
	return total
}

// Exploitability returns the half-sum of both players' best-response
// values against the fixed joint profile, corrected by g's game constant
// (zero for Kuhn, the base pot for the river game). Zero iff prof is a
// Nash equilibrium. The two independent best-response walks run
// concurrently, the same worker-per-independent-unit idiom as the
// showdown kernel's per-hero fan-out.
func Exploitability(g game.Game, prof profile.Scalar) float64 {
	var grp errgroup.Group
	var v0, v1 float64
	grp.Go(func() error {
		v0, _ = BestResponseScalar(g, prof, 0)
		return nil
	})
	grp.Go(func() error {
		v1, _ = BestResponseScalar(g, prof, 1)
		return nil
	})
	_ = grp.Wait()
	return 0.5 * (v0 + v1 - g.GameConstant())
}

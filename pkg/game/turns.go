package game

import (
	"fmt"
	"math/rand"

	"github.com/partyline/whispered/pkg/game/types"
)

// ShuffledOrder returns a uniformly random permutation of [0, n).
func ShuffledOrder(n int, rng *rand.Rand) []int {
	order := rng.Perm(n)
	return order
}

// NextActor returns the UID of the player whose order index follows the
// current actor's, wrapping around the rotation. Offline players stay in
// the rotation; presence is informational only.
func NextActor(players []*types.Player, currentUID string) (string, error) {
	if err := ValidateOrder(players); err != nil {
		return "", err
	}

	byOrder := make([]*types.Player, len(players))
	for _, p := range players {
		byOrder[p.OrderIndex] = p
	}

	for _, p := range byOrder {
		if p.UID == currentUID {
			next := byOrder[(p.OrderIndex+1)%len(byOrder)]
			return next.UID, nil
		}
	}
	return "", fmt.Errorf("player %s is not in the turn rotation", currentUID)
}

// ValidateOrder checks that order indexes form a contiguous permutation
// of [0, playerCount).
func ValidateOrder(players []*types.Player) error {
	if len(players) == 0 {
		return fmt.Errorf("empty roster")
	}
	seen := make([]bool, len(players))
	for _, p := range players {
		if p.OrderIndex < 0 || p.OrderIndex >= len(players) {
			return fmt.Errorf("player %s has order index %d outside [0, %d)", p.UID, p.OrderIndex, len(players))
		}
		if seen[p.OrderIndex] {
			return fmt.Errorf("duplicate order index %d", p.OrderIndex)
		}
		seen[p.OrderIndex] = true
	}
	return nil
}

package board

import "math/rand"

// RackSize is how many tiles a seat holds between moves.
const RackSize = 7

// letterCounts is the standard English tile distribution (blanks excluded).
var letterCounts = map[rune]int{
	'A': 9, 'B': 2, 'C': 2, 'D': 4, 'E': 12,
	'F': 2, 'G': 3, 'H': 2, 'I': 9, 'J': 1,
	'K': 1, 'L': 4, 'M': 2, 'N': 6, 'O': 8,
	'P': 2, 'Q': 1, 'R': 6, 'S': 4, 'T': 6,
	'U': 4, 'V': 2, 'W': 2, 'X': 1, 'Y': 2, 'Z': 1,
}

// newTileBag returns a shuffled bag with the standard distribution.
func newTileBag(rng *rand.Rand) []string {
	var bag []string
	for letter := 'A'; letter <= 'Z'; letter++ {
		for i := 0; i < letterCounts[letter]; i++ {
			bag = append(bag, string(letter))
		}
	}
	rng.Shuffle(len(bag), func(i, j int) {
		bag[i], bag[j] = bag[j], bag[i]
	})
	return bag
}

package constants

const (
	// MinPlayers is the minimum roster size required to start a game
	MinPlayers int = 4
	// MaxPlayers is the maximum roster size of a game
	MaxPlayers int = 9

	// WinningScore is the number of sub-round wins that settles a duel
	WinningScore int = 2

	// CodeLength is the length of generated game codes
	CodeLength int = 6
	// CodeAlphabet is the character set for game codes, with ambiguous
	// characters (0/O, 1/I) excluded
	CodeAlphabet string = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// UnassignedOrder is the order index of a player before the game has started
	UnassignedOrder int = -1

	// PurgeBatchSize is the maximum number of documents deleted per batch
	// when tearing down a game
	PurgeBatchSize int = 50
)

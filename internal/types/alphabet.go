package types

// AlphabetSize is the number of rounds every environment carries.
const AlphabetSize = 26

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Letters returns the round letters A-Z in order.
func Letters() []string {
	out := make([]string, 0, AlphabetSize)
	for i := 0; i < AlphabetSize; i++ {
		out = append(out, string(alphabet[i]))
	}
	return out
}

// LetterIndex returns the 0-based position of letter in the alphabet, or -1
// when letter is not a single character A-Z.
func LetterIndex(letter string) int {
	if len(letter) != 1 {
		return -1
	}
	c := letter[0]
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	if c < 'A' || c > 'Z' {
		return -1
	}
	return int(c - 'A')
}

// IsLetter reports whether letter names a valid round.
func IsLetter(letter string) bool {
	return LetterIndex(letter) >= 0
}

package helpers

import "math/rand/v2"

// RandomBytes returns n pseudo random bytes. Used to fill test databases.
func RandomBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(rand.IntN(256))
	}
	return b
}

// Package shortcode produces random base62 link codes. Uniqueness is not
// its job: the store rejects a taken code and the caller draws again.
package shortcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type Generator struct {
	length int
}

func NewGenerator(length int) *Generator {
	return &Generator{length: length}
}

func (g *Generator) Generate() (string, error) {
	base := big.NewInt(int64(len(alphabet)))
	code := make([]byte, g.length)
	for i := range code {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		code[i] = alphabet[n.Int64()]
	}
	return string(code), nil
}

package services

import (
	"crypto/rand"
	"io"
	"strings"

	domainerrors "cakeshop/contexts/ordering/order-service/domain/errors"
)

const (
	DefaultRefPrefix = "CMD"
	RefAlphabet      = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	refLength        = 6
)

// NewRef builds a public order reference such as CMD-7KQ2XA. The alphabet
// has 32 symbols so a byte modulo 32 stays uniform.
func NewRef(prefix string, source io.Reader) (string, error) {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = DefaultRefPrefix
	}
	if source == nil {
		source = rand.Reader
	}
	raw := make([]byte, refLength)
	if _, err := io.ReadFull(source, raw); err != nil {
		return "", domainerrors.ErrRefGenerationFailed
	}
	out := make([]byte, refLength)
	for i, b := range raw {
		out[i] = RefAlphabet[int(b)%len(RefAlphabet)]
	}
	return prefix + "-" + string(out), nil
}

func ValidRef(ref string) bool {
	idx := strings.LastIndex(ref, "-")
	if idx <= 0 || len(ref)-idx-1 != refLength {
		return false
	}
	for _, c := range ref[idx+1:] {
		if !strings.ContainsRune(RefAlphabet, c) {
			return false
		}
	}
	return true
}

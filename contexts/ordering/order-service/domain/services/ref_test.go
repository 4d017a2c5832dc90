package services

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	domainerrors "cakeshop/contexts/ordering/order-service/domain/errors"
)

func TestNewRefUsesAlphabetAndPrefix(t *testing.T) {
	ref, err := NewRef("cmd", bytes.NewReader([]byte{0, 1, 31, 32, 255, 8}))
	if err != nil {
		t.Fatalf("new ref: %v", err)
	}
	if ref != "CMD-AB9A9J" {
		t.Fatalf("expected CMD-AB9A9J, got %s", ref)
	}
	if !ValidRef(ref) {
		t.Fatalf("expected %s to be valid", ref)
	}
}

func TestNewRefDefaultsPrefix(t *testing.T) {
	ref, err := NewRef("", nil)
	if err != nil {
		t.Fatalf("new ref: %v", err)
	}
	if !strings.HasPrefix(ref, DefaultRefPrefix+"-") || !ValidRef(ref) {
		t.Fatalf("unexpected ref %s", ref)
	}
}

func TestNewRefShortSource(t *testing.T) {
	_, err := NewRef("CMD", bytes.NewReader([]byte{1, 2}))
	if !errors.Is(err, domainerrors.ErrRefGenerationFailed) {
		t.Fatalf("expected ErrRefGenerationFailed, got %v", err)
	}
}

func TestValidRefRejectsAmbiguousSymbols(t *testing.T) {
	for _, ref := range []string{"CMD-O0I1AB", "CMD-ABC", "ABCDEF", "CMD-abcdef"} {
		if ValidRef(ref) {
			t.Fatalf("expected %s to be invalid", ref)
		}
	}
}

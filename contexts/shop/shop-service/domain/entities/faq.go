package entities

import (
	"strings"
	"time"

	domainerrors "cakeshop/contexts/shop/shop-service/domain/errors"
)

const (
	MaxQuestionLength = 300
	MaxAnswerLength   = 5000
)

type FAQ struct {
	FAQID     string
	ShopID    string
	Question  string
	Answer    string
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func ValidateFAQ(question string, answer string) error {
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if question == "" || answer == "" {
		return domainerrors.ErrInvalidRequest
	}
	if len(question) > MaxQuestionLength || len(answer) > MaxAnswerLength {
		return domainerrors.ErrInvalidRequest
	}
	return nil
}

// ValidateFAQOrder checks that ids is a permutation of existing.
func ValidateFAQOrder(existing []FAQ, ids []string) error {
	if len(existing) != len(ids) {
		return domainerrors.ErrInvalidFAQOrder
	}
	known := make(map[string]bool, len(existing))
	for _, item := range existing {
		known[item.FAQID] = false
	}
	for _, id := range ids {
		used, ok := known[id]
		if !ok || used {
			return domainerrors.ErrInvalidFAQOrder
		}
		known[id] = true
	}
	return nil
}

package entities

import (
	"strings"

	domainerrors "cakeshop/contexts/shop/catalog-service/domain/errors"
)

type FieldType string

const (
	FieldText        FieldType = "text"
	FieldTextarea    FieldType = "textarea"
	FieldNumber      FieldType = "number"
	FieldSelect      FieldType = "select"
	FieldCheckbox    FieldType = "checkbox"
	FieldMultiSelect FieldType = "multi_select"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldTextarea, FieldNumber, FieldSelect, FieldCheckbox, FieldMultiSelect:
		return true
	default:
		return false
	}
}

func (t FieldType) HasOptions() bool {
	return t == FieldSelect || t == FieldMultiSelect
}

type FieldOption struct {
	OptionID   string
	Label      string
	PriceCents int64
}

// FormField is one question of a product customization form. PriceCents is
// the surcharge of a checked checkbox, or the per-unit surcharge of a
// number field.
type FormField struct {
	FieldID    string
	Label      string
	Type       FieldType
	Required   bool
	Options    []FieldOption
	PriceCents int64
}

func (f FormField) Option(optionID string) (FieldOption, bool) {
	for _, option := range f.Options {
		if option.OptionID == optionID {
			return option, true
		}
	}
	return FieldOption{}, false
}

// ValidateForm checks field types, ids and prices of a whole form.
func ValidateForm(fields []FormField) error {
	if len(fields) > MaxFormFields {
		return domainerrors.ErrInvalidForm
	}
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		id := strings.TrimSpace(field.FieldID)
		if id == "" || strings.TrimSpace(field.Label) == "" || !field.Type.Valid() {
			return domainerrors.ErrInvalidForm
		}
		if _, dup := seen[id]; dup {
			return domainerrors.ErrInvalidForm
		}
		seen[id] = struct{}{}
		if field.PriceCents < 0 || field.PriceCents > MaxPriceCents {
			return domainerrors.ErrInvalidPrice
		}
		if field.Type.HasOptions() {
			if len(field.Options) == 0 {
				return domainerrors.ErrInvalidForm
			}
			if err := validateOptions(field.Options); err != nil {
				return err
			}
		} else if len(field.Options) > 0 {
			return domainerrors.ErrInvalidForm
		}
	}
	return nil
}

func validateOptions(options []FieldOption) error {
	seen := make(map[string]struct{}, len(options))
	for _, option := range options {
		id := strings.TrimSpace(option.OptionID)
		if id == "" || strings.TrimSpace(option.Label) == "" {
			return domainerrors.ErrInvalidForm
		}
		if _, dup := seen[id]; dup {
			return domainerrors.ErrInvalidForm
		}
		seen[id] = struct{}{}
		if option.PriceCents < 0 || option.PriceCents > MaxPriceCents {
			return domainerrors.ErrInvalidPrice
		}
	}
	return nil
}

package services

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"cakeshop/contexts/shop/catalog-service/domain/entities"
	domainerrors "cakeshop/contexts/shop/catalog-service/domain/errors"
)

// Selection maps a form field id to the customer's raw answer: a string,
// a number, a bool, or a list of option ids.
type Selection map[string]any

type PricedLine struct {
	FieldID    string
	Label      string
	Value      string
	PriceCents int64
}

type PriceQuote struct {
	BasePriceCents int64
	Lines          []PricedLine
	TotalCents     int64
}

const maxQuantity = 1000

// CheckedValue is the line value of a ticked checkbox.
const CheckedValue = "oui"

// PriceSelection validates a selection against the product form and
// returns base price plus every surcharge. Lines follow form order.
func PriceSelection(product entities.Product, selection Selection) (PriceQuote, error) {
	known := make(map[string]struct{}, len(product.Form))
	for _, field := range product.Form {
		known[field.FieldID] = struct{}{}
	}
	for fieldID := range selection {
		if _, ok := known[fieldID]; !ok {
			return PriceQuote{}, domainerrors.ErrInvalidSelection
		}
	}

	quote := PriceQuote{
		BasePriceCents: product.BasePriceCents,
		TotalCents:     product.BasePriceCents,
		Lines:          make([]PricedLine, 0, len(product.Form)),
	}
	for _, field := range product.Form {
		raw, present := selection[field.FieldID]
		line, answered, err := priceField(field, raw, present)
		if err != nil {
			return PriceQuote{}, err
		}
		if !answered {
			if field.Required {
				return PriceQuote{}, domainerrors.ErrRequiredFieldMissing
			}
			continue
		}
		quote.Lines = append(quote.Lines, line)
		quote.TotalCents += line.PriceCents
	}
	return quote, nil
}

func priceField(field entities.FormField, raw any, present bool) (PricedLine, bool, error) {
	line := PricedLine{FieldID: field.FieldID, Label: field.Label}
	if !present || raw == nil {
		return line, false, nil
	}

	switch field.Type {
	case entities.FieldText, entities.FieldTextarea:
		value, ok := raw.(string)
		if !ok {
			return line, false, domainerrors.ErrInvalidSelection
		}
		value = strings.TrimSpace(value)
		if value == "" {
			return line, false, nil
		}
		line.Value = value
		return line, true, nil

	case entities.FieldNumber:
		quantity, err := toQuantity(raw)
		if err != nil {
			return line, false, err
		}
		line.Value = strconv.FormatInt(quantity, 10)
		line.PriceCents = quantity * field.PriceCents
		return line, true, nil

	case entities.FieldCheckbox:
		checked, ok := raw.(bool)
		if !ok {
			return line, false, domainerrors.ErrInvalidSelection
		}
		if !checked {
			return line, false, nil
		}
		line.Value = CheckedValue
		line.PriceCents = field.PriceCents
		return line, true, nil

	case entities.FieldSelect:
		optionID, ok := raw.(string)
		if !ok {
			return line, false, domainerrors.ErrInvalidSelection
		}
		if strings.TrimSpace(optionID) == "" {
			return line, false, nil
		}
		option, ok := field.Option(optionID)
		if !ok {
			return line, false, domainerrors.ErrInvalidSelection
		}
		line.Value = option.Label
		line.PriceCents = option.PriceCents
		return line, true, nil

	case entities.FieldMultiSelect:
		optionIDs, err := toStringList(raw)
		if err != nil {
			return line, false, err
		}
		if len(optionIDs) == 0 {
			return line, false, nil
		}
		seen := make(map[string]struct{}, len(optionIDs))
		labels := make([]string, 0, len(optionIDs))
		for _, optionID := range optionIDs {
			if _, dup := seen[optionID]; dup {
				return line, false, domainerrors.ErrInvalidSelection
			}
			seen[optionID] = struct{}{}
			option, ok := field.Option(optionID)
			if !ok {
				return line, false, domainerrors.ErrInvalidSelection
			}
			labels = append(labels, option.Label)
			line.PriceCents += option.PriceCents
		}
		line.Value = strings.Join(labels, ", ")
		return line, true, nil
	}
	return line, false, domainerrors.ErrInvalidSelection
}

func toQuantity(raw any) (int64, error) {
	var value float64
	switch v := raw.(type) {
	case float64:
		value = v
	case int:
		value = float64(v)
	case int64:
		value = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, domainerrors.ErrInvalidSelection
		}
		value = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, domainerrors.ErrInvalidSelection
		}
		value = parsed
	default:
		return 0, domainerrors.ErrInvalidSelection
	}
	if value < 0 || value > maxQuantity || value != math.Trunc(value) {
		return 0, domainerrors.ErrInvalidSelection
	}
	return int64(value), nil
}

func toStringList(raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, domainerrors.ErrInvalidSelection
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, domainerrors.ErrInvalidSelection
	}
}

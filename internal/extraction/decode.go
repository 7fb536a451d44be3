package extraction

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvloznov/dompet/internal/amount"
	"github.com/dvloznov/dompet/internal/domain"
	"github.com/shopspring/decimal"
)

// decodeExtraction validates the model's JSON object and converts it into an ExtractionResult.
// amount, category, description and type must be present with the right JSON types;
// date may be null or missing and is left for reconciliation to replace.
func decodeExtraction(raw string) (*domain.ExtractionResult, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var obj map[string]interface{}
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("decodeExtraction: unmarshal JSON: %w", err)
	}
	if obj == nil {
		return nil, fmt.Errorf("decodeExtraction: response is not a JSON object")
	}

	amt, err := getAmountField(obj, "amount")
	if err != nil {
		return nil, fmt.Errorf("decodeExtraction: %w", err)
	}
	category, err := getStringField(obj, "category", true)
	if err != nil {
		return nil, fmt.Errorf("decodeExtraction: %w", err)
	}
	description, err := getStringField(obj, "description", false)
	if err != nil {
		return nil, fmt.Errorf("decodeExtraction: %w", err)
	}
	if _, ok := obj["description"]; !ok {
		return nil, fmt.Errorf("decodeExtraction: missing required field %q", "description")
	}
	date, err := getOptionalStringField(obj, "date")
	if err != nil {
		return nil, fmt.Errorf("decodeExtraction: %w", err)
	}
	typeStr, err := getStringField(obj, "type", true)
	if err != nil {
		return nil, fmt.Errorf("decodeExtraction: %w", err)
	}
	txType, err := domain.ParseTransactionType(strings.ToLower(strings.TrimSpace(typeStr)))
	if err != nil {
		return nil, fmt.Errorf("decodeExtraction: %w", err)
	}

	res := &domain.ExtractionResult{
		Amount:      amt,
		Category:    category,
		Description: description,
		Type:        txType,
	}
	if date != nil {
		res.Date = *date
	}
	return res, nil
}

func getStringField(m map[string]interface{}, key string, required bool) (string, error) {
	v, ok := m[key]
	if !ok {
		if required {
			return "", fmt.Errorf("missing required field %q", key)
		}
		return "", nil
	}
	switch val := v.(type) {
	case string:
		if required && strings.TrimSpace(val) == "" {
			return "", fmt.Errorf("required field %q is empty", key)
		}
		return val, nil
	default:
		return "", fmt.Errorf("field %q has type %T, want string", key, v)
	}
}

func getOptionalStringField(m map[string]interface{}, key string) (*string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil, nil
		}
		return &s, nil
	default:
		return nil, fmt.Errorf("field %q has type %T, want string or null", key, v)
	}
}

// getAmountField accepts a JSON number or, from models that ignore the schema, a string.
func getAmountField(m map[string]interface{}, key string) (amount.Raw, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return amount.Raw{}, fmt.Errorf("missing required field %q", key)
	}
	switch val := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return amount.Raw{}, fmt.Errorf("field %q: %w", key, err)
		}
		return amount.Number(d), nil
	case string:
		return amount.Text(val), nil
	default:
		return amount.Raw{}, fmt.Errorf("field %q has type %T, want number", key, v)
	}
}

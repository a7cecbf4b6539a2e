package domain

import (
	"encoding/json"
	"fmt"
)

// The vendor wraps list payloads in a named envelope ({"pets": [...]}); some
// deployments return the bare array. Both are accepted, and an envelope whose
// key is explicit null counts as an empty list.

// DecodePets extracts the pet list from a pets payload.
func DecodePets(raw json.RawMessage) ([]Pet, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err == nil {
		inner, ok := envelope["pets"]
		if !ok {
			return nil, fmt.Errorf("unrecognized pets payload")
		}
		var pets []Pet
		if err := json.Unmarshal(inner, &pets); err != nil {
			return nil, fmt.Errorf("unrecognized pets payload")
		}
		return pets, nil
	}

	var pets []Pet
	if err := json.Unmarshal(raw, &pets); err == nil {
		return pets, nil
	}
	return nil, fmt.Errorf("unrecognized pets payload")
}

// DecodeDailies extracts the daily summaries from a dailies payload.
func DecodeDailies(raw json.RawMessage) ([]DailySummary, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err == nil {
		inner, ok := envelope["dailies"]
		if !ok {
			return nil, fmt.Errorf("unrecognized dailies payload")
		}
		var dailies []DailySummary
		if err := json.Unmarshal(inner, &dailies); err != nil {
			return nil, fmt.Errorf("unrecognized dailies payload")
		}
		return dailies, nil
	}

	var dailies []DailySummary
	if err := json.Unmarshal(raw, &dailies); err == nil {
		return dailies, nil
	}
	return nil, fmt.Errorf("unrecognized dailies payload")
}

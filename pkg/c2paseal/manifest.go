package c2paseal

import (
	"encoding/json"
	"fmt"

	"veritas/internal/sealtypes"
)

// RawAssertion is the generic shape of an assertion entry in a C2PA
// manifest tree: a label plus an opaque data payload.
type RawAssertion struct {
	Label string          `json:"label"`
	Data  json.RawMessage `json:"data"`
}

// Manifest is the minimal subset of a C2PA manifest this bridge reads and
// writes: an action list plus the assertion set. Outer-manifest signing
// (ES256/ECDSA P-256) is delegated to a collaborator signer; this type
// never carries a signature.
type Manifest struct {
	Actions    []Action       `json:"actions"`
	Assertions []RawAssertion `json:"assertions"`
}

// Action is a single C2PA action entry.
type Action struct {
	Action string `json:"action"`
}

// defaultActions is the fixed action list used when embedding a
// quantum-seal assertion.
func defaultActions() []Action {
	return []Action{
		{Action: "c2pa.created"},
		{Action: "c2pa.published"},
	}
}

// Embed constructs a manifest definition document carrying the fixed
// action list and seal's quantum-seal assertion.
func Embed(seal *sealtypes.Seal) (Manifest, error) {
	data, err := json.Marshal(ToAssertion(seal))
	if err != nil {
		return Manifest{}, fmt.Errorf("c2paseal: marshal assertion: %w", err)
	}

	return Manifest{
		Actions: defaultActions(),
		Assertions: []RawAssertion{
			{Label: AssertionLabel, Data: data},
		},
	}, nil
}

// Extract walks a manifest's assertion list for the quantum-seal label and
// deserialises it back into a Seal. A manifest with no such assertion is a
// legitimate non-veritas manifest, reported as ErrMissingAssertion rather
// than a malformed-input error.
func Extract(m Manifest) (*sealtypes.Seal, error) {
	for _, a := range m.Assertions {
		if a.Label != AssertionLabel {
			continue
		}

		var assertion Assertion
		if err := json.Unmarshal(a.Data, &assertion); err != nil {
			return nil, fmt.Errorf("c2paseal: decode assertion data: %w", err)
		}
		return FromAssertion(assertion)
	}

	return nil, ErrMissingAssertion
}

package entities

import (
	"fmt"
	"strconv"
	"strings"
)

// TriageLevel is the ordinal urgency classification, T1 being the most urgent.
type TriageLevel int

const (
	TriageUnknown TriageLevel = iota
	TriageT1
	TriageT2
	TriageT3
	TriageT4
	TriageT5
)

// ParseTriageLevel accepts "T1".."T5" in any case and spacing, or the bare
// digits "1".."5" (spreadsheets often store the level as a number, possibly
// formatted as "3.0").
func ParseTriageLevel(label string) (TriageLevel, error) {
	s := strings.ToUpper(strings.Join(strings.Fields(label), ""))
	s = strings.TrimPrefix(s, "T")
	s = strings.TrimSuffix(s, ".0")

	n, err := strconv.Atoi(s)
	if err != nil || n < int(TriageT1) || n > int(TriageT5) {
		return TriageUnknown, fmt.Errorf("unknown triage level %q", label)
	}
	return TriageLevel(n), nil
}

// String returns the canonical "T1".."T5" label.
func (l TriageLevel) String() string {
	if !l.Valid() {
		return ""
	}
	return "T" + strconv.Itoa(int(l))
}

// Valid reports whether l is one of T1..T5.
func (l TriageLevel) Valid() bool {
	return l >= TriageT1 && l <= TriageT5
}

// Urgent reports whether the level belongs to the emergency band (T1-T3).
func (l TriageLevel) Urgent() bool {
	return l >= TriageT1 && l <= TriageT3
}

// MarshalText encodes the level as its label.
func (l TriageLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes a label; an empty label decodes to TriageUnknown.
func (l *TriageLevel) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*l = TriageUnknown
		return nil
	}
	level, err := ParseTriageLevel(string(text))
	if err != nil {
		return err
	}
	*l = level
	return nil
}

// RawTriageRecord is one row of the triage decision tree as extracted by a
// TriageSource, before normalization.
type RawTriageRecord struct {
	Category  string `json:"category"`
	Symptom   string `json:"symptom"`
	Modifier  string `json:"modifier"`
	Modality  string `json:"modality"`
	Urgency   string `json:"urgency"`
	Specialty string `json:"specialty"`
}

// CaseIdentity identifies a clinical case.
type CaseIdentity struct {
	Category string `json:"category"`
	Symptom  string `json:"symptom"`
	Modifier string `json:"modifier"`
}

// ClinicalCase is a deduplicated triage outcome. Urgency and Specialty are
// taken from the first source row seen for the identity.
type ClinicalCase struct {
	Category  string      `json:"category"`
	Symptom   string      `json:"symptom"`
	Modifier  string      `json:"modifier"`
	Modality  string      `json:"modality,omitempty"`
	Urgency   TriageLevel `json:"urgency"`
	Specialty string      `json:"specialty"`
}

// Identity returns the case identity.
func (c ClinicalCase) Identity() CaseIdentity {
	return CaseIdentity{Category: c.Category, Symptom: c.Symptom, Modifier: c.Modifier}
}

package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Fact types used by the inference engine.
const (
	FactTypeMunicipio  = "municipio"
	FactTypeUsuario    = "usuario"
	FactTypeEmision    = "emision"
	FactTypeActividad  = "actividad"
	FactTypeInferencia = "inferencia"
)

// ValueKind discriminates the closed set of scalar fact values.
type ValueKind int

const (
	ValueNumber ValueKind = iota
	ValueText
	ValueBool
)

// Value is a scalar fact value: a number, a text string or a boolean.
// Modeling the closed set explicitly lets numeric comparisons be rejected
// up front instead of silently degrading at evaluation time.
type Value struct {
	kind ValueKind
	num  float64
	text string
	b    bool
}

func Number(n float64) Value { return Value{kind: ValueNumber, num: n} }
func Text(s string) Value    { return Value{kind: ValueText, text: s} }
func Boolean(b bool) Value   { return Value{kind: ValueBool, b: b} }

// ValueOf converts an arbitrary JSON-decoded scalar into a Value.
// Unsupported types are rendered as text so the fact remains usable
// for equality, just never for numeric comparison.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case json.Number:
		if n, err := x.Float64(); err == nil {
			return Number(n)
		}
		return Text(x.String())
	case string:
		return Text(x)
	case bool:
		return Boolean(x)
	default:
		return Text(fmt.Sprintf("%v", v))
	}
}

func (v Value) Kind() ValueKind { return v.kind }

// Number returns the numeric value and whether the value is numeric.
func (v Value) Number() (float64, bool) {
	if v.kind == ValueNumber {
		return v.num, true
	}
	return 0, false
}

func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case ValueNumber:
		return v.num == other.num
	case ValueText:
		return v.text == other.text
	default:
		return v.b == other.b
	}
}

func (v Value) String() string {
	switch v.kind {
	case ValueNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case ValueText:
		return v.text
	default:
		return strconv.FormatBool(v.b)
	}
}

// MarshalJSON emits the underlying scalar, so conclusion logs persist the
// same shape the rule store uses.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueNumber:
		return json.Marshal(v.num)
	case ValueText:
		return json.Marshal(v.text)
	default:
		return json.Marshal(v.b)
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = ValueOf(raw)
	return nil
}

// Fact is an atomic proposition about the world: municipio.tipo = "Industrial
// Pesado", emision.per_capita = 8500. Facts are immutable once created.
type Fact struct {
	Type       string  `json:"tipo"`
	Attribute  string  `json:"atributo"`
	Value      Value   `json:"valor"`
	Confidence float64 `json:"confianza"`
}

// NewFact creates a fact with full confidence.
func NewFact(factType, attribute string, value Value) Fact {
	return Fact{Type: factType, Attribute: attribute, Value: value, Confidence: 1.0}
}

// Key returns the identity triple used for deduplication. Confidence is
// deliberately excluded: two facts with the same triple are the same fact.
func (f Fact) Key() string {
	return f.Type + "\x00" + f.Attribute + "\x00" + strconv.Itoa(int(f.Value.kind)) + "\x00" + f.Value.String()
}

func (f Fact) String() string {
	return fmt.Sprintf("%s.%s = %s (confianza: %.2f)", f.Type, f.Attribute, f.Value, f.Confidence)
}

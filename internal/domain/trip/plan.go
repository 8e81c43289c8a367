package trip

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/jaimani/ai-travel-demo/internal/domain"
)

// PlanRequest is either a single-city or a multi-city request. Exactly one
// of the two fields is set.
type PlanRequest struct {
	Single *Request
	Multi  *MultiCityRequest
}

// ParsePlanRequest decodes a planning request body. The mode is chosen
// solely by the presence of a "trip_legs" field.
func ParsePlanRequest(data []byte) (PlanRequest, error) {
	if !gjson.ValidBytes(data) {
		return PlanRequest{}, fmt.Errorf("%w: request body is not valid JSON", domain.ErrValidation)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return PlanRequest{}, fmt.Errorf("%w: request body must be a JSON object", domain.ErrValidation)
	}

	if doc.Get("trip_legs").Exists() {
		if field := mistypedMultiField(doc); field != "" {
			return PlanRequest{}, fmt.Errorf("%w: field %s has the wrong type", domain.ErrValidation, field)
		}
		var m MultiCityRequest
		if err := json.Unmarshal(data, &m); err != nil {
			return PlanRequest{}, fmt.Errorf("%w: %s", domain.ErrValidation, decodeDetail(err))
		}
		return PlanRequest{Multi: &m}, nil
	}

	if field := mistypedField(doc, "", requestFields); field != "" {
		return PlanRequest{}, fmt.Errorf("%w: field %s has the wrong type", domain.ErrValidation, field)
	}
	var r Request
	if err := json.Unmarshal(data, &r); err != nil {
		return PlanRequest{}, fmt.Errorf("%w: %s", domain.ErrValidation, decodeDetail(err))
	}
	return PlanRequest{Single: &r}, nil
}

// IsMultiCity reports whether the request is the multi-city shape.
func (p PlanRequest) IsMultiCity() bool {
	return p.Multi != nil
}

// Validate checks the invariants of whichever shape is set.
func (p PlanRequest) Validate() error {
	switch {
	case p.Multi != nil:
		return p.Multi.Validate()
	case p.Single != nil:
		return p.Single.Validate()
	default:
		return fmt.Errorf("%w: empty plan request", domain.ErrValidation)
	}
}

func decodeDetail(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("field %s has the wrong type", typeErr.Field)
	}
	return "malformed request body"
}

type fieldType struct {
	name string
	typ  gjson.Type
}

var (
	requestFields = []fieldType{
		{"origin", gjson.String},
		{"destination", gjson.String},
		{"departure_date", gjson.String},
		{"return_date", gjson.String},
		{"budget", gjson.Number},
		{"passengers", gjson.Number},
	}
	multiFields = []fieldType{
		{"budget", gjson.Number},
		{"passengers", gjson.Number},
	}
	legFields = []fieldType{
		{"origin", gjson.String},
		{"destination", gjson.String},
		{"departure_date", gjson.String},
		{"leg_number", gjson.Number},
	}
)

// mistypedField returns the path of the first present, non-null field of
// obj whose JSON type differs from fields, or "".
func mistypedField(obj gjson.Result, prefix string, fields []fieldType) string {
	for _, f := range fields {
		v := obj.Get(f.name)
		if v.Exists() && v.Type != gjson.Null && v.Type != f.typ {
			return prefix + f.name
		}
	}
	return ""
}

func mistypedMultiField(doc gjson.Result) string {
	if field := mistypedField(doc, "", multiFields); field != "" {
		return field
	}
	legs := doc.Get("trip_legs")
	if legs.Type == gjson.Null {
		return ""
	}
	if !legs.IsArray() {
		return "trip_legs"
	}
	for i, leg := range legs.Array() {
		prefix := "trip_legs." + strconv.Itoa(i)
		if !leg.IsObject() {
			return prefix
		}
		if field := mistypedField(leg, prefix+".", legFields); field != "" {
			return field
		}
	}
	return ""
}

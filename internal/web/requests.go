package web

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/agingmap/internal/core"
)

// errBadRequest marks errors caused by the request rather than the server.
var errBadRequest = errors.New("bad request")

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the shared validator. Field names in errors are the
// query parameter names.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			if name := f.Tag.Get("query"); name != "" {
				return name
			}
			return f.Name
		})
	})
	return validate
}

// filterParams are the query parameters describing a FilterSpec.
type filterParams struct {
	Jurisdiction string   `query:"provincia" validate:"omitempty,max=100"`
	LocalityID   string   `query:"clc" validate:"omitempty,max=16"`
	Selected     string   `query:"selected" validate:"omitempty,max=16"`
	PopMin       *float64 `query:"pop_min" validate:"omitempty,gte=0"`
	PopMax       *float64 `query:"pop_max" validate:"omitempty,gte=0"`
	PctMin       *float64 `query:"pct_min" validate:"omitempty,gte=0,lte=100"`
	PctMax       *float64 `query:"pct_max" validate:"omitempty,gte=0,lte=100"`
	PPMin        *float64 `query:"pp_min" validate:"omitempty,gte=-100,lte=100"`
	PPMax        *float64 `query:"pp_max" validate:"omitempty,gte=-100,lte=100"`
}

type searchParams struct {
	Query string `query:"q" validate:"required,max=100"`
	Limit int    `query:"limit" validate:"omitempty,min=1,max=50"`
}

type nearestParams struct {
	Lon *float64 `query:"lon" validate:"required,gte=-180,lte=180"`
	Lat *float64 `query:"lat" validate:"required,gte=-90,lte=90"`
	K   int      `query:"k" validate:"omitempty,min=1,max=50"`
}

// parseFilter reads a FilterSpec and the optional selected locality from q.
// A range with only one bound is open on the other side.
func parseFilter(q url.Values) (core.FilterSpec, string, error) {
	p := filterParams{
		Jurisdiction: strings.TrimSpace(q.Get("provincia")),
		LocalityID:   strings.TrimSpace(q.Get("clc")),
		Selected:     strings.TrimSpace(q.Get("selected")),
	}

	var err error
	floats := []struct {
		name string
		dst  **float64
	}{
		{"pop_min", &p.PopMin}, {"pop_max", &p.PopMax},
		{"pct_min", &p.PctMin}, {"pct_max", &p.PctMax},
		{"pp_min", &p.PPMin}, {"pp_max", &p.PPMax},
	}
	for _, f := range floats {
		if *f.dst, err = floatParam(q, f.name); err != nil {
			return core.FilterSpec{}, "", err
		}
	}

	if err := validateParams(p); err != nil {
		return core.FilterSpec{}, "", err
	}

	spec := core.FilterSpec{
		Jurisdiction: p.Jurisdiction,
		LocalityID:   p.LocalityID,
	}
	if spec.Population, err = makeRange("pop", p.PopMin, p.PopMax); err != nil {
		return core.FilterSpec{}, "", err
	}
	if spec.Pct60, err = makeRange("pct", p.PctMin, p.PctMax); err != nil {
		return core.FilterSpec{}, "", err
	}
	if spec.GrowthPP, err = makeRange("pp", p.PPMin, p.PPMax); err != nil {
		return core.FilterSpec{}, "", err
	}
	return spec, p.Selected, nil
}

func parseSearch(q url.Values, defaultLimit int) (searchParams, error) {
	p := searchParams{Query: strings.TrimSpace(q.Get("q")), Limit: defaultLimit}

	limit, err := intParam(q, "limit")
	if err != nil {
		return p, err
	}
	if limit != nil {
		p.Limit = *limit
	}
	return p, validateParams(p)
}

func parseNearest(q url.Values) (nearestParams, error) {
	p := nearestParams{K: 5}

	var err error
	if p.Lon, err = floatParam(q, "lon"); err != nil {
		return p, err
	}
	if p.Lat, err = floatParam(q, "lat"); err != nil {
		return p, err
	}
	k, err := intParam(q, "k")
	if err != nil {
		return p, err
	}
	if k != nil {
		p.K = *k
	}
	return p, validateParams(p)
}

// floatParam parses an optional numeric parameter. A decimal comma is accepted.
func floatParam(q url.Values, name string) (*float64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	f, ok := core.ToFloat(raw)
	if !ok {
		return nil, fmt.Errorf("%w: invalid parameter %s: %q is not a number", errBadRequest, name, raw)
	}
	return &f, nil
}

func intParam(q url.Values, name string) (*int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid parameter %s: %q is not an integer", errBadRequest, name, raw)
	}
	return &i, nil
}

func makeRange(name string, lo, hi *float64) (*core.Range, error) {
	if lo == nil && hi == nil {
		return nil, nil
	}
	r := core.Range{Min: -math.MaxFloat64, Max: math.MaxFloat64}
	if lo != nil {
		r.Min = *lo
	}
	if hi != nil {
		r.Max = *hi
	}
	if r.Min > r.Max {
		return nil, fmt.Errorf("%w: invalid range %s: min %g > max %g", errBadRequest, name, r.Min, r.Max)
	}
	return &r, nil
}

// validateParams runs struct validation and rewrites failures in terms of
// query parameters.
func validateParams(v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: invalid parameter: %w", errBadRequest, err)
	}

	var missing, invalid []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
			continue
		}
		invalid = append(invalid, describeFieldError(fe))
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing parameter %s", errBadRequest, strings.Join(missing, ", "))
	}
	return fmt.Errorf("%w: invalid parameter %s", errBadRequest, strings.Join(invalid, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

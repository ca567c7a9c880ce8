package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/roman"
	"github.com/FocuswithJustin/writings/core/writings"
	"github.com/go-chi/chi/v5"
)

// parseNumber reads a selection or paragraph number written in digits or
// as an upper case roman numeral ("11" or "XI").
func parseNumber(field, s string) (int, error) {
	if s != "" && strings.Trim(s, "0123456789") == "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return 0, &errors.ValidationError{Field: field, Value: s, Message: "must be a positive number"}
		}
		return n, nil
	}
	n, err := roman.Parse(s)
	if err != nil {
		return 0, &errors.ValidationError{Field: field, Value: s, Message: "must be a number or a roman numeral", Err: err}
	}
	return n, nil
}

// parseCount reads a non-negative integer; 0 addresses a prologue or
// epilogue.
func parseCount(field, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, &errors.ValidationError{Field: field, Value: s, Message: "must be a non-negative integer"}
	}
	return n, nil
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &errors.ValidationError{Field: name, Value: s, Message: "must be an integer"}
	}
	return n, nil
}

func hiddenWordKind(r *http.Request) (writings.HiddenWordKind, error) {
	s := chi.URLParam(r, "kind")
	kind, ok := writings.ParseHiddenWordKind(s)
	if !ok {
		return "", &errors.ValidationError{Field: "kind", Value: s, Message: "must be arabic or persian"}
	}
	return kind, nil
}

func prayerKind(r *http.Request) (writings.PrayerKind, error) {
	s := chi.URLParam(r, "kind")
	kind, ok := writings.ParsePrayerKind(s)
	if !ok {
		return "", &errors.ValidationError{Field: "kind", Value: s, Message: "unknown prayer kind"}
	}
	return kind, nil
}

// sectionPath splits a wildcard path such as "aid-and-assistance/morning"
// into its parts.
func sectionPath(s string) []string {
	var parts []string
	for _, p := range strings.Split(s, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

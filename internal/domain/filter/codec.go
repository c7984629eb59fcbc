package filter

import (
	"net/url"
	"strings"
)

// Query parameter names.
const (
	ParamSearch      = "search"
	ParamType        = "type"
	ParamSpecialties = "specialties"
	ParamSort        = "sort"
)

// DefaultPath is the location path used when none is supplied.
const DefaultPath = "/"

// Decode builds a State from a location ("/?search=x", "?search=x") or a bare
// query string ("search=x"). Only a location has its path and fragment
// stripped; a bare query is handed to DecodeQuery untouched, so a literal
// "?" inside a value survives.
func Decode(s string) State {
	if strings.HasPrefix(s, "/") || strings.HasPrefix(s, "?") {
		if i := strings.IndexByte(s, '#'); i >= 0 {
			s = s[:i]
		}
		if i := strings.IndexByte(s, '?'); i >= 0 {
			s = s[i+1:]
		} else {
			s = ""
		}
	}
	return DecodeQuery(s)
}

// DecodeQuery builds a State from a raw query string as received on a
// request. Absent parameters take their defaults, only the first value of a
// repeated parameter is used, and unrecognized parameters are ignored.
func DecodeQuery(raw string) State {
	// ParseQuery keeps every pair it could parse, so a malformed pair only
	// drops itself.
	values, _ := url.ParseQuery(raw)

	s := State{
		Search:           values.Get(ParamSearch),
		ConsultationType: values.Get(ParamType),
		SortBy:           values.Get(ParamSort),
	}
	if raw := values.Get(ParamSpecialties); raw != "" {
		for _, sp := range strings.Split(raw, ",") {
			if sp != "" {
				s.Specialties = append(s.Specialties, sp)
			}
		}
	}
	return s
}

// Encode renders s as a query string without the leading "?". Fields at their
// default are omitted and the parameter order is fixed: search, type,
// specialties, sort.
func Encode(s State) string {
	var b strings.Builder
	add := func(key, value string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}

	if s.Search != "" {
		add(ParamSearch, s.Search)
	}
	if s.ConsultationType != "" {
		add(ParamType, s.ConsultationType)
	}
	if len(s.Specialties) > 0 {
		add(ParamSpecialties, strings.Join(s.Specialties, ","))
	}
	if s.SortBy != "" {
		add(ParamSort, s.SortBy)
	}
	return b.String()
}

// Location returns the navigable location for s under path. An empty query
// yields the bare path with no "?".
func Location(path string, s State) string {
	if path == "" {
		path = DefaultPath
	}
	q := Encode(s)
	if q == "" {
		return path
	}
	return path + "?" + q
}

// PathOf returns the path part of a location, or DefaultPath when it has none.
func PathOf(location string) string {
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		location = location[:i]
	}
	if location == "" {
		return DefaultPath
	}
	return location
}

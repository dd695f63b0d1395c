package ident

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// Kind classifies the shape of an opaque schedule identifier.
type Kind int

const (
	KindCustom Kind = iota
	KindInt
	KindGUID
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindGUID:
		return "guid"
	default:
		return "custom"
	}
}

// Resolved is the classification of one identifier together with the
// lookup predicate (CMS OData filter) that fetches the matching record.
// Custom identifiers carry no predicate; resolving them is the caller's
// problem.
type Resolved struct {
	Kind Kind
	Raw  string

	// IntValue is set when Kind is KindInt.
	IntValue int
	// GUID is the canonical lowercase form, set when Kind is KindGUID.
	GUID string

	Predicate string
}

// Classify inspects raw and returns its classification. It never fails:
// anything that is neither digits-only nor a canonical RFC 4122 GUID is
// KindCustom.
func Classify(raw string) Resolved {
	if n, ok := parseInt(raw); ok {
		return Resolved{
			Kind:      KindInt,
			Raw:       raw,
			IntValue:  n,
			Predicate: fmt.Sprintf("Id eq %d", n),
		}
	}

	if g, ok := parseGUID(raw); ok {
		return Resolved{
			Kind:      KindGUID,
			Raw:       raw,
			GUID:      g,
			Predicate: fmt.Sprintf("Guid eq guid'%s'", g),
		}
	}

	return Resolved{Kind: KindCustom, Raw: raw}
}

func parseInt(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseGUID accepts only the 36-character hyphenated RFC 4122 textual
// form, versions 1 through 5. Braced, URN and bare-hex variants are
// deliberately rejected.
func parseGUID(raw string) (string, bool) {
	if len(raw) != 36 {
		return "", false
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	if u.Variant() != uuid.RFC4122 {
		return "", false
	}
	if v := u.Version(); v < 1 || v > 5 {
		return "", false
	}
	return u.String(), true
}

package config

import (
	"fmt"
	"strings"
)

// ListMode selects the structure a bibliography placeholder is rendered into.
type ListMode int

const (
	ListModeEnumerated ListMode = iota
	ListModeBullet
	ListModeCitation
)

var listModeNames = map[ListMode]string{
	ListModeEnumerated: "enumerated",
	ListModeBullet:     "bullet",
	ListModeCitation:   "citation",
}

func ListModeNames() []string {
	return []string{"enumerated", "bullet", "citation"}
}

func ParseListMode(name string) (ListMode, error) {
	for m, n := range listModeNames {
		if strings.EqualFold(name, n) {
			return m, nil
		}
	}
	return ListModeEnumerated, fmt.Errorf("%q is not a valid list mode", name)
}

func (m ListMode) String() string {
	if n, ok := listModeNames[m]; ok {
		return n
	}
	// this should never happen
	panic("unsupported list mode requested")
}

func (m ListMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *ListMode) UnmarshalText(text []byte) (err error) {
	*m, err = ParseListMode(string(text))
	return
}

// EnumType is the numbering glyph style for enumerated bibliographies.
type EnumType int

const (
	EnumTypeArabic EnumType = iota
	EnumTypeLowerAlpha
	EnumTypeUpperAlpha
	EnumTypeLowerRoman
	EnumTypeUpperRoman
)

var enumTypeNames = map[EnumType]string{
	EnumTypeArabic:     "arabic",
	EnumTypeLowerAlpha: "loweralpha",
	EnumTypeUpperAlpha: "upperalpha",
	EnumTypeLowerRoman: "lowerroman",
	EnumTypeUpperRoman: "upperroman",
}

func EnumTypeNames() []string {
	return []string{"arabic", "loweralpha", "upperalpha", "lowerroman", "upperroman"}
}

func ParseEnumType(name string) (EnumType, error) {
	for t, n := range enumTypeNames {
		if strings.EqualFold(name, n) {
			return t, nil
		}
	}
	return EnumTypeArabic, fmt.Errorf("%q is not a valid enumeration type", name)
}

func (t EnumType) String() string {
	if n, ok := enumTypeNames[t]; ok {
		return n
	}
	// this should never happen
	panic("unsupported enumeration type requested")
}

func (t EnumType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *EnumType) UnmarshalText(text []byte) (err error) {
	*t, err = ParseEnumType(string(text))
	return
}

// BibScope tells which citation markers a placeholder collects:
// markers from its own document only, or from every document in the build.
type BibScope int

const (
	BibScopeDocument BibScope = iota
	BibScopeBuild
)

var bibScopeNames = map[BibScope]string{
	BibScopeDocument: "document",
	BibScopeBuild:    "build",
}

func BibScopeNames() []string {
	return []string{"document", "build"}
}

func ParseBibScope(name string) (BibScope, error) {
	for s, n := range bibScopeNames {
		if strings.EqualFold(name, n) {
			return s, nil
		}
	}
	return BibScopeDocument, fmt.Errorf("%q is not a valid bibliography scope", name)
}

func (s BibScope) String() string {
	if n, ok := bibScopeNames[s]; ok {
		return n
	}
	// this should never happen
	panic("unsupported bibliography scope requested")
}

func (s BibScope) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *BibScope) UnmarshalText(text []byte) (err error) {
	*s, err = ParseBibScope(string(text))
	return
}

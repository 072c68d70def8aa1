package domain

import "strings"

// Element describes a class of document nodes by tag, attribute and
// attribute value. Empty fields are unset. Elements are values: resolving
// one produces a copy and leaves the template untouched.
type Element struct {
	Tag       string `yaml:"tag"`
	Attribute string `yaml:"attribute"`
	Value     string `yaml:"value"`
}

// Valid reports whether the element names a tag or an attribute.
func (e Element) Valid() bool {
	return e.Tag != "" || e.Attribute != ""
}

// WithValue returns a copy of e whose attribute value is v.
func (e Element) WithValue(v string) Element {
	e.Value = v
	return e
}

// Selector renders the CSS equivalent of e.
//
//	tag[attr="value"], tag[attr], [attr="value"], [attr], tag
func (e Element) Selector() string {
	var b strings.Builder
	b.WriteString(e.Tag)
	if e.Attribute == "" {
		return b.String()
	}

	b.WriteByte('[')
	b.WriteString(e.Attribute)
	if e.Value != "" {
		b.WriteString(`="`)
		b.WriteString(escapeValue(e.Value))
		b.WriteByte('"')
	}
	b.WriteByte(']')
	return b.String()
}

func (e Element) String() string {
	return e.Selector()
}

var valueEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeValue(v string) string {
	return valueEscaper.Replace(v)
}

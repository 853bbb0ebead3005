package enums

import "fmt"

// NetTerms identifies a deferred payment window offered to wholesale buyers.
type NetTerms string

const (
	NetTerms15 NetTerms = "net-15"
	NetTerms30 NetTerms = "net-30"
	NetTerms45 NetTerms = "net-45"
	NetTerms60 NetTerms = "net-60"
)

var validNetTerms = []NetTerms{
	NetTerms15,
	NetTerms30,
	NetTerms45,
	NetTerms60,
}

// String implements fmt.Stringer.
func (n NetTerms) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NetTerms option.
func (n NetTerms) IsValid() bool {
	for _, candidate := range validNetTerms {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNetTerms converts raw input into a NetTerms value.
func ParseNetTerms(value string) (NetTerms, error) {
	for _, candidate := range validNetTerms {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid net terms %q", value)
}

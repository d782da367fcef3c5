// Package modulekey represents the catalog key of a feature module.
package modulekey

import (
	"fmt"
	"regexp"
)

// ModuleKey represents the unique key of a module in the catalog.
type ModuleKey struct {
	value string
}

// String returns the value of the module key.
func (k ModuleKey) String() string {
	return k.value
}

// Equal provides support for the go-cmp package and testing.
func (k ModuleKey) Equal(k2 ModuleKey) bool {
	return k.value == k2.value
}

// MarshalText provides support for logging and any marshal needs.
func (k ModuleKey) MarshalText() ([]byte, error) {
	return []byte(k.value), nil
}

// =============================================================================

// keyRegEx allows lowercase words separated by single hyphens, the same
// grammar used for navigation routes derived from the key.
var keyRegEx = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Parse parses the string value and returns a module key if the value
// complies with the rules for a key.
func Parse(value string) (ModuleKey, error) {
	if len(value) < 2 || len(value) > 50 || !keyRegEx.MatchString(value) {
		return ModuleKey{}, fmt.Errorf("invalid module key %q", value)
	}

	return ModuleKey{value}, nil
}

// MustParse parses the string value and returns a module key if the value
// complies with the rules for a key. If an error occurs the function panics.
func MustParse(value string) ModuleKey {
	key, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return key
}

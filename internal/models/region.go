package models

import (
	"errors"
	"fmt"
	"strings"
)

// Region names a catalog partition; it selects which remote playlist is fetched.
type Region string

// Known regions. The list is fixed; there is no dynamic registration.
const (
	Adelaide  Region = "Adelaide"
	Brisbane  Region = "Brisbane"
	Canberra  Region = "Canberra"
	Darwin    Region = "Darwin"
	Hobart    Region = "Hobart"
	Melbourne Region = "Melbourne"
	Perth     Region = "Perth"
	Sydney    Region = "Sydney"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = Melbourne

// ErrUnknownRegion is returned by ParseRegion for names outside Regions.
var ErrUnknownRegion = errors.New("unknown region")

// Regions returns all known regions in display order.
func Regions() []Region {
	return []Region{Adelaide, Brisbane, Canberra, Darwin, Hobart, Melbourne, Perth, Sydney}
}

// ParseRegion matches name case-insensitively and returns the canonical spelling.
func ParseRegion(name string) (Region, error) {
	name = strings.TrimSpace(name)
	for _, r := range Regions() {
		if strings.EqualFold(string(r), name) {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRegion, name)
}

func (r Region) String() string { return string(r) }

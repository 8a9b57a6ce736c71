// internal/domain/pricing/customization.go
package pricing

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Recognized customization keys as sent by the storefront
const (
	KeyCapacity         = "Capacity"
	KeyFinish           = "Finish"
	KeyPrintingLocation = "Printing Location"
	KeySize             = "Size"
)

// Finish is the surface finish of a printed pouch
type Finish string

const (
	FinishGloss Finish = "gloss"
	FinishMatt  Finish = "matt"
)

// ParseFinish maps free text to a finish, defaulting to gloss
func ParseFinish(s string) Finish {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "matt", "matte":
		return FinishMatt
	default:
		return FinishGloss
	}
}

// Customization holds the attributes a customer picked for a line item.
// Unrecognized attributes are kept in Extra.
type Customization struct {
	Capacity         string
	Finish           string
	PrintingLocation string
	Size             string
	Extra            map[string]string
}

// CustomizationFromMap builds a Customization from the flat attribute map
func CustomizationFromMap(m map[string]string) Customization {
	var c Customization
	for k, v := range m {
		c.set(k, v)
	}
	return c
}

func (c *Customization) set(key, value string) {
	switch key {
	case KeyCapacity:
		c.Capacity = value
	case KeyFinish:
		c.Finish = value
	case KeyPrintingLocation:
		c.PrintingLocation = value
	case KeySize:
		c.Size = value
	default:
		if c.Extra == nil {
			c.Extra = make(map[string]string)
		}
		c.Extra[key] = value
	}
}

// FinishValue returns the parsed finish
func (c Customization) FinishValue() Finish {
	return ParseFinish(c.Finish)
}

// ToMap flattens the customization back to its wire form
func (c Customization) ToMap() map[string]string {
	m := make(map[string]string, len(c.Extra)+4)
	for k, v := range c.Extra {
		m[k] = v
	}
	if c.Capacity != "" {
		m[KeyCapacity] = c.Capacity
	}
	if c.Finish != "" {
		m[KeyFinish] = c.Finish
	}
	if c.PrintingLocation != "" {
		m[KeyPrintingLocation] = c.PrintingLocation
	}
	if c.Size != "" {
		m[KeySize] = c.Size
	}
	return m
}

// IsEmpty reports whether no attribute is set
func (c Customization) IsEmpty() bool {
	return len(c.ToMap()) == 0
}

// Fingerprint is a stable key for the attribute set, used to tell cart lines
// apart. Keys and values are JSON-quoted so no value can forge a separator.
func (c Customization) Fingerprint() string {
	m := c.ToMap()
	if len(m) == 0 {
		return ""
	}
	// encoding/json writes map keys sorted
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}

// Label renders the attributes for people, e.g. "Capacity: 25 G, Finish: Gloss"
func (c Customization) Label() string {
	m := c.ToMap()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+m[k])
	}
	return strings.Join(parts, ", ")
}

// MarshalJSON writes the flat attribute map
func (c Customization) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.ToMap())
}

// UnmarshalJSON accepts a flat object; non-string values are stringified
func (c *Customization) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("customization must be an object: %w", err)
	}
	*c = Customization{}
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			c.set(k, val)
		default:
			c.set(k, fmt.Sprint(val))
		}
	}
	return nil
}

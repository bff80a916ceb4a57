package dump

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pithecene-io/resdump/iox"
)

// SegmentRecord is one queryable segment in a device menu.
type SegmentRecord struct {
	Type               uint16 `yaml:"type" json:"type"`
	Name               string `yaml:"name" json:"name"`
	Index1Supported    bool   `yaml:"index1" json:"index1"`
	Index2Supported    bool   `yaml:"index2" json:"index2"`
	NumOfObj1Supported bool   `yaml:"num_of_obj1" json:"num_of_obj1"`
	NumOfObj2Supported bool   `yaml:"num_of_obj2" json:"num_of_obj2"`
}

// Menu lists the segments a device can dump.
type Menu struct {
	// Device is the device the menu was queried from; empty matches any.
	Device   string          `yaml:"device" json:"device"`
	Segments []SegmentRecord `yaml:"segments" json:"segments"`
}

// Lookup finds a segment by name (case-insensitive) or by numeric type
// written in decimal or 0x-prefixed hex.
func (m *Menu) Lookup(selector string) (SegmentRecord, bool) {
	if code, err := strconv.ParseUint(selector, 0, 16); err == nil {
		for _, rec := range m.Segments {
			if uint64(rec.Type) == code {
				return rec, true
			}
		}
		return SegmentRecord{}, false
	}
	for _, rec := range m.Segments {
		if strings.EqualFold(rec.Name, selector) {
			return rec, true
		}
	}
	return SegmentRecord{}, false
}

// SegmentType resolves a selector to its numeric segment type.
func (m *Menu) SegmentType(selector string) (uint16, error) {
	rec, ok := m.Lookup(selector)
	if !ok {
		return 0, fmt.Errorf("%w: segment %q not in menu", ErrUnsupported, selector)
	}
	return rec.Type, nil
}

// FormatSegmentType renders a segment type the way fetchers expect it.
func FormatSegmentType(code uint16) string {
	return fmt.Sprintf("0x%04x", code)
}

// LoadMenu reads a YAML menu file. Unknown fields are rejected.
func LoadMenu(path string) (*Menu, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read menu file %q: %w", path, err)
	}
	defer iox.DiscardClose(f)

	var menu Menu
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&menu); err != nil {
		return nil, fmt.Errorf("invalid menu in %s: %w", path, err)
	}

	seen := make(map[uint16]string, len(menu.Segments))
	for _, rec := range menu.Segments {
		if prev, dup := seen[rec.Type]; dup {
			return nil, fmt.Errorf("invalid menu in %s: segment type %s listed twice (%s, %s)",
				path, FormatSegmentType(rec.Type), prev, rec.Name)
		}
		seen[rec.Type] = rec.Name
	}
	return &menu, nil
}

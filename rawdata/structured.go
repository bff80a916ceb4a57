package rawdata

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// DataField is the reserved key whose value holds raw dump bytes.
const DataField = "data"

// WordSize is the number of bytes folded into one word on the structured
// and text paths.
const WordSize = 4

// ExtractStructured walks a JSON dump depth-first in document order and
// turns every "data" byte array into 32-bit big-endian words.
//
// A "data" array whose length is not a multiple of WordSize fails with
// ErrMalformedDataLength; entries that are not integers 0..255 fail with
// ErrMalformedDataValue. Nothing is returned on failure.
func ExtractStructured(src Source) ([]uint64, error) {
	return extractStructured(src, DefaultMaxSize)
}

func extractStructured(src Source, limit int64) ([]uint64, error) {
	data, err := readSource(src, limit)
	if err != nil {
		return nil, err
	}
	root, err := ParseNode(data)
	if err != nil {
		return nil, newExtractError(ErrSyntax, src.Name(), err)
	}

	c := &dataCollector{source: src.Name(), words: make([]uint64, 0)}
	if err := c.walk(root, "$"); err != nil {
		return nil, err
	}
	return c.words, nil
}

type dataCollector struct {
	source string
	words  []uint64
}

func (c *dataCollector) walk(n *Node, path string) error {
	switch n.Kind {
	case NodeMapping:
		for _, e := range n.Entries {
			p := path + "." + e.Key
			var err error
			if e.Key == DataField {
				err = c.collect(e.Value, p)
			} else {
				err = c.walk(e.Value, p)
			}
			if err != nil {
				return err
			}
		}
	case NodeList:
		for i, item := range n.Items {
			if err := c.walk(item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case NodeScalar:
	default:
		return c.fail(ErrMalformedDataValue, path, fmt.Errorf("unhandled node kind %v", n.Kind))
	}
	return nil
}

// collect consumes a "data" array in non-overlapping runs of WordSize bytes.
func (c *dataCollector) collect(n *Node, path string) error {
	if n.Kind != NodeList {
		return c.fail(ErrMalformedDataValue, path, fmt.Errorf("expected list, got %v", n.Kind))
	}
	if len(n.Items)%WordSize != 0 {
		return c.fail(ErrMalformedDataLength, path,
			fmt.Errorf("%d bytes is not a multiple of %d", len(n.Items), WordSize))
	}
	for i := 0; i < len(n.Items); i += WordSize {
		var w uint64
		for j := range WordSize {
			b, err := byteValue(n.Items[i+j])
			if err != nil {
				return c.fail(ErrMalformedDataValue, fmt.Sprintf("%s[%d]", path, i+j), err)
			}
			w = w<<8 | uint64(b)
		}
		c.words = append(c.words, w)
	}
	return nil
}

func (c *dataCollector) fail(kind error, path string, err error) error {
	e := newExtractError(kind, c.source, err)
	e.Path = path
	return e
}

func byteValue(n *Node) (uint8, error) {
	num, ok := n.Value.(json.Number)
	if n.Kind != NodeScalar || !ok {
		return 0, fmt.Errorf("expected byte value, got %v", n.Kind)
	}
	v, err := strconv.ParseUint(num.String(), 10, 8)
	if err != nil {
		return 0, fmt.Errorf("expected byte value, got %s", num)
	}
	return uint8(v), nil
}

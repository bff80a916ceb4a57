package rawdata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// NodeKind tags the variant held by a Node.
type NodeKind int

const (
	// NodeScalar is a string, number, boolean or null.
	NodeScalar NodeKind = iota
	// NodeMapping is an object with entries in document order.
	NodeMapping
	// NodeList is an array.
	NodeList
)

func (k NodeKind) String() string {
	switch k {
	case NodeScalar:
		return "scalar"
	case NodeMapping:
		return "mapping"
	case NodeList:
		return "list"
	default:
		return fmt.Sprintf("node(%d)", int(k))
	}
}

// Entry is one name/value pair of a mapping.
type Entry struct {
	Key   string
	Value *Node
}

// Node is a parsed structured document value.
// Exactly one of Entries, Items or Value is meaningful, selected by Kind.
type Node struct {
	Kind    NodeKind
	Entries []Entry
	Items   []*Node
	// Value holds a json.Number, string, bool or nil for scalars.
	Value any
}

// SyntaxError reports content that is not a single well-formed JSON document.
type SyntaxError struct {
	Err error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error: %v", e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// ParseNode parses data as one JSON document, keeping mapping entries in
// document order. A key repeated within one mapping keeps its first position
// and takes the last value.
func ParseNode(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	root, err := decodeNode(dec)
	if err != nil {
		return nil, &SyntaxError{Err: err}
	}
	if tok, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = fmt.Errorf("unexpected %v after document", tok)
		}
		return nil, &SyntaxError{Err: err}
	}
	return root, nil
}

func decodeNode(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return &Node{Kind: NodeScalar, Value: tok}, nil
	}
	switch delim {
	case '{':
		return decodeMapping(dec)
	case '[':
		return decodeList(dec)
	default:
		return nil, fmt.Errorf("unexpected delimiter %q", rune(delim))
	}
}

func decodeMapping(dec *json.Decoder) (*Node, error) {
	n := &Node{Kind: NodeMapping}
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		value, err := decodeNode(dec)
		if err != nil {
			return nil, err
		}
		if i, dup := index[key]; dup {
			n.Entries[i].Value = value
			continue
		}
		index[key] = len(n.Entries)
		n.Entries = append(n.Entries, Entry{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return n, nil
}

func decodeList(dec *json.Decoder) (*Node, error) {
	n := &Node{Kind: NodeList}
	for dec.More() {
		item, err := decodeNode(dec)
		if err != nil {
			return nil, err
		}
		n.Items = append(n.Items, item)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return n, nil
}

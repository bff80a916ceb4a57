package rawdata

import "fmt"

// Kind is the physical encoding of a dump.
type Kind int

const (
	// KindBinary is a raw byte dump.
	KindBinary Kind = iota
	// KindStructured is a JSON document with "data" byte arrays.
	KindStructured
	// KindText is a human-readable report with 0xXXXXXXXX tokens.
	KindText
)

// String returns the lowercase name used in logs, records and frames.
func (k Kind) String() string {
	switch k {
	case KindBinary:
		return "binary"
	case KindStructured:
		return "structured"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case KindBinary, KindStructured, KindText:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("invalid kind %d", int(k))
	}
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind parses a kind name as produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "binary":
		return KindBinary, nil
	case "structured":
		return KindStructured, nil
	case "text":
		return KindText, nil
	default:
		return 0, fmt.Errorf("unknown dump kind %q (must be binary, structured, or text)", s)
	}
}

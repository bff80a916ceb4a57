package lode

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/pithecene-io/resdump/rawdata"
	"github.com/pithecene-io/resdump/types"
)

// RecordKindWords discriminates word records in the dataset.
const RecordKindWords = "raw_words"

// WordsRecord is the storage format of one normalized dump.
type WordsRecord struct {
	RecordKind      string `json:"record_kind"`
	ContractVersion string `json:"contract_version"`
	RecordID        string `json:"record_id"`

	Source    string   `json:"source"`
	Width     int      `json:"width"`
	WordCount int      `json:"word_count"`
	Words     []string `json:"words"` // hex, zero-padded to Width
	Digest    string   `json:"digest"`
	StoredAt  string   `json:"stored_at"`

	// Partition keys
	Device string `json:"device"`
	Kind   string `json:"kind"`
	Day    string `json:"day"`
}

// Path returns the Hive partition path of the record.
func (r WordsRecord) Path() string {
	return fmt.Sprintf("%s=%s/%s=%s/%s=%s",
		PartitionDevice, r.Device, PartitionKind, r.Kind, PartitionDay, r.Day)
}

// Digest returns the SHA-256 of a word sequence's kind, width and values.
// Equal sequences always share a digest.
func Digest(w *rawdata.Words) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s/%d/", w.Kind, w.Width)
	var buf [8]byte
	for _, v := range w.Values {
		binary.BigEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

func newWordsRecord(w *rawdata.Words, device string, now time.Time) WordsRecord {
	words := make([]string, len(w.Values))
	for i, v := range w.Values {
		words[i] = rawdata.FormatWord(v, w.Width)
	}
	return WordsRecord{
		RecordKind:      RecordKindWords,
		ContractVersion: types.ContractVersion,
		RecordID:        uuid.NewString(),
		Source:          w.Source,
		Width:           w.Width,
		WordCount:       len(w.Values),
		Words:           words,
		Digest:          Digest(w),
		StoredAt:        now.UTC().Format(time.RFC3339Nano),
		Device:          device,
		Kind:            w.Kind.String(),
		Day:             DeriveDay(now),
	}
}

// toMap converts the record for Lode storage.
// Lode HiveLayout requires records as map[string]any.
func (r WordsRecord) toMap() map[string]any {
	return map[string]any{
		"record_kind":      r.RecordKind,
		"contract_version": r.ContractVersion,
		"record_id":        r.RecordID,
		"source":           r.Source,
		"width":            r.Width,
		"word_count":       r.WordCount,
		"words":            r.Words,
		"digest":           r.Digest,
		"stored_at":        r.StoredAt,
		"device":           r.Device,
		"kind":             r.Kind,
		"day":              r.Day,
	}
}

// recordFromMap decodes a record read back from the dataset.
func recordFromMap(m map[string]any) (WordsRecord, error) {
	r := WordsRecord{
		RecordKind:      toString(m["record_kind"]),
		ContractVersion: toString(m["contract_version"]),
		RecordID:        toString(m["record_id"]),
		Source:          toString(m["source"]),
		Digest:          toString(m["digest"]),
		StoredAt:        toString(m["stored_at"]),
		Device:          toString(m["device"]),
		Kind:            toString(m["kind"]),
		Day:             toString(m["day"]),
	}
	if r.RecordKind != RecordKindWords {
		return WordsRecord{}, fmt.Errorf("unexpected record_kind %q", r.RecordKind)
	}

	var err error
	if r.Width, err = toInt(m["width"]); err != nil {
		return WordsRecord{}, fmt.Errorf("width: %w", err)
	}
	if r.WordCount, err = toInt(m["word_count"]); err != nil {
		return WordsRecord{}, fmt.Errorf("word_count: %w", err)
	}

	switch words := m["words"].(type) {
	case []string:
		r.Words = words
	case []any:
		r.Words = make([]string, len(words))
		for i, w := range words {
			s, ok := w.(string)
			if !ok {
				return WordsRecord{}, fmt.Errorf("words[%d]: expected string, got %T", i, w)
			}
			r.Words[i] = s
		}
	case nil:
		r.Words = []string{}
	default:
		return WordsRecord{}, fmt.Errorf("words: expected list, got %T", words)
	}
	if len(r.Words) != r.WordCount {
		return WordsRecord{}, fmt.Errorf("word_count %d does not match %d stored words", r.WordCount, len(r.Words))
	}
	return r, nil
}

// ToWords decodes the stored word sequence.
func (r WordsRecord) ToWords() (*rawdata.Words, error) {
	kind, err := rawdata.ParseKind(r.Kind)
	if err != nil {
		return nil, err
	}
	values := make([]uint64, len(r.Words))
	for i, s := range r.Words {
		v, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("words[%d]: %w", i, err)
		}
		values[i] = v
	}
	return &rawdata.Words{
		Source: r.Source,
		Kind:   kind,
		Width:  r.Width,
		Values: values,
	}, nil
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// toInt accepts the numeric forms produced by the JSONL codec and by
// in-memory records.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

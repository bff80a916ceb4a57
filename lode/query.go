package lode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/justapithecus/lode/lode"
)

// ErrNoWordsFound is returned when no record matches a query.
var ErrNoWordsFound = errors.New("no stored words found")

// Filter narrows a query. Empty fields match everything.
type Filter struct {
	Device string
	Kind   string
	Source string
}

func (f Filter) matchesSnapshot(snap *lode.DatasetSnapshot) bool {
	return snapshotMatches(snap, PartitionDevice, f.Device) &&
		snapshotMatches(snap, PartitionKind, f.Kind)
}

func (f Filter) matchesRecord(r WordsRecord) bool {
	return (f.Device == "" || r.Device == f.Device) &&
		(f.Kind == "" || r.Kind == f.Kind) &&
		(f.Source == "" || r.Source == f.Source)
}

// History returns up to limit matching records, most recent first.
// A limit <= 0 returns all of them.
func History(ctx context.Context, ds lode.Dataset, f Filter, limit int) ([]WordsRecord, error) {
	var out []WordsRecord
	err := walkLatest(ctx, ds, f, func(r WordsRecord) bool {
		out = append(out, r)
		return limit <= 0 || len(out) < limit
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LatestWords returns the most recent record matching f, or
// ErrNoWordsFound.
func LatestWords(ctx context.Context, ds lode.Dataset, f Filter) (WordsRecord, error) {
	var found *WordsRecord
	err := walkLatest(ctx, ds, f, func(r WordsRecord) bool {
		found = &r
		return false
	})
	if err != nil {
		return WordsRecord{}, err
	}
	if found == nil {
		return WordsRecord{}, ErrNoWordsFound
	}
	return *found, nil
}

// walkLatest visits matching records from the newest snapshot backwards
// until visit returns false. A record seen in several snapshots is visited
// once.
func walkLatest(ctx context.Context, ds lode.Dataset, f Filter, visit func(WordsRecord) bool) error {
	seen := make(map[string]struct{})
	snapshots, err := ds.Snapshots(ctx)
	if err != nil {
		return WrapReadError(err, fmt.Sprintf("%s/snapshots", ds.ID()))
	}

	for i := len(snapshots) - 1; i >= 0; i-- {
		snap := snapshots[i]
		if !f.matchesSnapshot(snap) {
			continue
		}

		data, err := ds.Read(ctx, snap.ID)
		if err != nil {
			return WrapReadError(err, fmt.Sprintf("%s/snapshot/%s", ds.ID(), snap.ID))
		}

		// Manifest paths are a coarse pre-filter; record fields decide.
		for j := len(data) - 1; j >= 0; j-- {
			m, ok := data[j].(map[string]any)
			if !ok || m["record_kind"] != RecordKindWords {
				continue
			}
			rec, err := recordFromMap(m)
			if err != nil {
				return WrapReadError(err, fmt.Sprintf("%s/snapshot/%s", ds.ID(), snap.ID))
			}
			if _, dup := seen[rec.RecordID]; dup && rec.RecordID != "" {
				continue
			}
			seen[rec.RecordID] = struct{}{}
			if !f.matchesRecord(rec) {
				continue
			}
			if !visit(rec) {
				return nil
			}
		}
	}
	return nil
}

// snapshotMatches reports whether any file of snap lies in the key=value
// partition. An empty value matches every snapshot.
func snapshotMatches(snap *lode.DatasetSnapshot, key, value string) bool {
	if value == "" {
		return true
	}
	for _, file := range snap.Manifest.Files {
		if matchesPartitionValue(file.Path, key, value) {
			return true
		}
	}
	return false
}

// matchesPartitionValue checks for an exact key=value path segment, so
// device=mlx5_1 does not match device=mlx5_10.
func matchesPartitionValue(path, key, value string) bool {
	segment := key + "=" + value
	for _, part := range strings.Split(path, "/") {
		if part == segment {
			return true
		}
	}
	return false
}

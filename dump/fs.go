package dump

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// MenuFileQuerier serves a menu from a YAML file.
type MenuFileQuerier struct {
	Path string
}

// Query loads the menu file. The device and vhcaID are checked by Verify.
func (q MenuFileQuerier) Query(ctx context.Context, _ string, _ *int) (*Menu, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadMenu(q.Path)
}

// dumpExtensions are tried in order after the bare file name.
var dumpExtensions = []string{"", ".bin", ".json", ".txt"}

// DirFetcher serves previously captured dumps laid out as
// <root>/<device>/<segment>[.bin|.json|.txt], where segment is the
// FormatSegmentType value. A vhca_id adds a vhca-<id> directory level.
type DirFetcher struct {
	Root string
}

// Fetch reads the first matching dump file.
func (f DirFetcher) Fetch(ctx context.Context, req Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := filepath.Join(f.Root, req.Device)
	if req.VHCAID != nil {
		dir = filepath.Join(dir, fmt.Sprintf("vhca-%d", *req.VHCAID))
	}

	for _, ext := range dumpExtensions {
		data, err := os.ReadFile(filepath.Join(dir, req.Segment+ext))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("no dump for segment %s under %s: %w", req.Segment, dir, fs.ErrNotExist)
}

var (
	_ Querier = MenuFileQuerier{}
	_ Fetcher = DirFetcher{}
)

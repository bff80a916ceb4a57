package dump

import (
	"context"
	"fmt"
)

// Querier returns the segment menu of a device.
type Querier interface {
	Query(ctx context.Context, device string, vhcaID *int) (*Menu, error)
}

// Fetcher retrieves raw dump content for a verified request.
// The request's Segment is always a FormatSegmentType value.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) ([]byte, error)
}

// Get queries the menu, verifies req against it, resolves the segment to its
// numeric type and fetches the dump. Verification failures wrap
// ErrUnsupported and are never retried.
func Get(ctx context.Context, q Querier, f Fetcher, req Request) ([]byte, error) {
	menu, err := q.Query(ctx, req.Device, req.VHCAID)
	if err != nil {
		return nil, fmt.Errorf("query menu for %s: %w", req.Device, err)
	}

	if err := Verify(menu, req); err != nil {
		return nil, err
	}

	code, err := menu.SegmentType(req.Segment)
	if err != nil {
		return nil, err
	}
	req.Segment = FormatSegmentType(code)

	data, err := f.Fetch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch segment %s from %s: %w", req.Segment, req.Device, err)
	}
	return data, nil
}

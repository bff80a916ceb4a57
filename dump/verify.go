package dump

import (
	"errors"
	"fmt"
)

// ErrUnsupported is returned when a request does not fit the device menu.
var ErrUnsupported = errors.New("not supported or missing argument")

// Verify checks req against menu. Every failure wraps ErrUnsupported.
func Verify(menu *Menu, req Request) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if menu.Device != "" && menu.Device != req.Device {
		return fmt.Errorf("%w: menu is for device %q, request is for %q", ErrUnsupported, menu.Device, req.Device)
	}

	rec, ok := menu.Lookup(req.Segment)
	if !ok {
		return fmt.Errorf("%w: segment %q not in menu", ErrUnsupported, req.Segment)
	}

	checks := []struct {
		arg       string
		set       bool
		supported bool
	}{
		{ArgIndex1, req.Index1 != nil, rec.Index1Supported},
		{ArgIndex2, req.Index2 != nil, rec.Index2Supported},
		{ArgNumOfObj1, req.NumOfObj1 != "", rec.NumOfObj1Supported},
		{ArgNumOfObj2, req.NumOfObj2 != "", rec.NumOfObj2Supported},
	}
	for _, c := range checks {
		if c.set && !c.supported {
			return fmt.Errorf("%w: segment %s does not accept %s", ErrUnsupported, rec.Name, c.arg)
		}
	}
	if req.Index2 != nil && req.Index1 == nil {
		return fmt.Errorf("%w: %s requires %s", ErrUnsupported, ArgIndex2, ArgIndex1)
	}

	selections := []struct {
		countArg, indexArg string
		count              string
		indexed            bool
	}{
		{ArgNumOfObj1, ArgIndex1, req.NumOfObj1, req.Index1 != nil},
		{ArgNumOfObj2, ArgIndex2, req.NumOfObj2, req.Index2 != nil},
	}
	for _, s := range selections {
		if s.indexed && (s.count == NumOfObjAll || s.count == NumOfObjActive) {
			return fmt.Errorf("%w: %s=%s selects every object and cannot be combined with %s",
				ErrUnsupported, s.countArg, s.count, s.indexArg)
		}
	}
	return nil
}

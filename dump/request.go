// Package dump acquires raw dump content for a device segment.
//
// Acquisition queries the device's segment menu, verifies the request
// against it, resolves a symbolic segment name to its numeric type and then
// fetches the dump bytes. The bytes are handed to rawdata for normalization.
package dump

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pithecene-io/resdump/iox"
)

// Argument keys accepted by ParseArgs.
const (
	ArgDevice    = "device"
	ArgVHCAID    = "vhca_id"
	ArgSegment   = "segment"
	ArgIndex1    = "index1"
	ArgIndex2    = "index2"
	ArgNumOfObj1 = "num_of_obj1"
	ArgNumOfObj2 = "num_of_obj2"
	ArgDepth     = "depth"
	ArgMem       = "mem"
	ArgBin       = "bin"
)

// Object count keywords accepted in place of a number.
const (
	NumOfObjAll    = "all"
	NumOfObjActive = "active"
)

// DepthInfinite requests unbounded reference following.
const DepthInfinite = -1

// ErrUnknownArgument is returned by ParseArgs for unrecognized keys.
var ErrUnknownArgument = errors.New("unknown argument")

var knownArgs = []string{
	ArgDevice, ArgVHCAID, ArgSegment, ArgIndex1, ArgIndex2,
	ArgNumOfObj1, ArgNumOfObj2, ArgDepth, ArgMem, ArgBin,
}

// Request describes one dump acquisition.
type Request struct {
	// Device identifies the device, e.g. a PCI address or mst device (required).
	Device string `yaml:"device"`
	// VHCAID selects a virtual function / partition; nil means the device itself.
	VHCAID *int `yaml:"vhca_id,omitempty"`
	// Segment is a segment name or numeric type (required).
	Segment string `yaml:"segment"`
	// Index1 and Index2 select objects within the segment.
	Index1 *uint32 `yaml:"index1,omitempty"`
	Index2 *uint32 `yaml:"index2,omitempty"`
	// NumOfObj1 and NumOfObj2 hold a count, "all" or "active".
	NumOfObj1 string `yaml:"num_of_obj1,omitempty"`
	NumOfObj2 string `yaml:"num_of_obj2,omitempty"`
	// Depth bounds reference following; DepthInfinite means unbounded.
	Depth *int `yaml:"depth,omitempty"`
	// Mem names a memory region used for the transfer.
	Mem string `yaml:"mem,omitempty"`
	// Bin is an output path for the raw dump.
	Bin string `yaml:"bin,omitempty"`
}

// Validate checks required fields and value forms.
func (r Request) Validate() error {
	if r.Device == "" {
		return errors.New("device is required")
	}
	if r.Segment == "" {
		return errors.New("segment is required")
	}
	if r.VHCAID != nil && *r.VHCAID < 0 {
		return fmt.Errorf("vhca_id must be >= 0, got %d", *r.VHCAID)
	}
	if err := validateNumOfObj(ArgNumOfObj1, r.NumOfObj1); err != nil {
		return err
	}
	if err := validateNumOfObj(ArgNumOfObj2, r.NumOfObj2); err != nil {
		return err
	}
	if r.Depth != nil && *r.Depth < DepthInfinite {
		return fmt.Errorf("depth must be >= 0 or inf, got %d", *r.Depth)
	}
	return nil
}

func validateNumOfObj(name, v string) error {
	switch v {
	case "", NumOfObjAll, NumOfObjActive:
		return nil
	}
	if _, err := strconv.ParseUint(v, 0, 32); err != nil {
		return fmt.Errorf("%s must be a count, %q or %q, got %q", name, NumOfObjAll, NumOfObjActive, v)
	}
	return nil
}

// ParseArgs builds a Request from key/value arguments such as
// "device=mlx5_0 segment=0x1000". Unknown keys are rejected.
func ParseArgs(args map[string]string) (Request, error) {
	var unknown []string
	for k := range args {
		if !slices.Contains(knownArgs, k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Request{}, fmt.Errorf("%w: %s (known: %s)",
			ErrUnknownArgument, strings.Join(unknown, ", "), strings.Join(knownArgs, ", "))
	}

	req := Request{
		Device:    args[ArgDevice],
		Segment:   args[ArgSegment],
		NumOfObj1: args[ArgNumOfObj1],
		NumOfObj2: args[ArgNumOfObj2],
		Mem:       args[ArgMem],
		Bin:       args[ArgBin],
	}

	if v, ok := args[ArgVHCAID]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Request{}, fmt.Errorf("invalid %s %q: %w", ArgVHCAID, v, err)
		}
		req.VHCAID = &n
	}
	for key, dst := range map[string]**uint32{ArgIndex1: &req.Index1, ArgIndex2: &req.Index2} {
		v, ok := args[key]
		if !ok {
			continue
		}
		n, err := strconv.ParseUint(v, 0, 32)
		if err != nil {
			return Request{}, fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		idx := uint32(n)
		*dst = &idx
	}
	if v, ok := args[ArgDepth]; ok {
		depth := DepthInfinite
		if v != "inf" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return Request{}, fmt.Errorf("invalid %s %q: %w", ArgDepth, v, err)
			}
			depth = n
		}
		req.Depth = &depth
	}

	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// LoadRequest reads a YAML request file. Unknown fields are rejected.
func LoadRequest(path string) (Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return Request{}, fmt.Errorf("cannot read request file %q: %w", path, err)
	}
	defer iox.DiscardClose(f)

	var req Request
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&req); err != nil {
		return Request{}, fmt.Errorf("invalid request in %s: %w", path, err)
	}
	if err := req.Validate(); err != nil {
		return Request{}, fmt.Errorf("invalid request in %s: %w", path, err)
	}
	return req, nil
}

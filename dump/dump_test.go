package dump

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testMenuYAML = `device: mlx5_0
segments:
  - type: 4096
    name: HW_CQPC
    index1: true
    num_of_obj1: true
  - type: 4112
    name: HW_SQPC
    index1: true
    index2: true
    num_of_obj2: true
  - type: 8192
    name: FW_TRACE
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func testMenu(t *testing.T) *Menu {
	t.Helper()
	menu, err := LoadMenu(writeFile(t, t.TempDir(), "menu.yaml", testMenuYAML))
	if err != nil {
		t.Fatalf("LoadMenu failed: %v", err)
	}
	return menu
}

func u32(v uint32) *uint32 { return &v }

func TestParseArgs(t *testing.T) {
	req, err := ParseArgs(map[string]string{
		"device":      "mlx5_0",
		"segment":     "HW_CQPC",
		"vhca_id":     "3",
		"index1":      "0x10",
		"num_of_obj1": "all",
		"depth":       "inf",
	})
	if err != nil {
		t.Fatalf("ParseArgs failed: %v", err)
	}
	if req.Device != "mlx5_0" || req.Segment != "HW_CQPC" {
		t.Errorf("unexpected request: %+v", req)
	}
	if req.VHCAID == nil || *req.VHCAID != 3 {
		t.Errorf("VHCAID = %v, want 3", req.VHCAID)
	}
	if req.Index1 == nil || *req.Index1 != 16 {
		t.Errorf("Index1 = %v, want 16", req.Index1)
	}
	if req.Index2 != nil {
		t.Errorf("Index2 = %v, want nil", *req.Index2)
	}
	if req.NumOfObj1 != NumOfObjAll {
		t.Errorf("NumOfObj1 = %q, want all", req.NumOfObj1)
	}
	if req.Depth == nil || *req.Depth != DepthInfinite {
		t.Errorf("Depth = %v, want inf", req.Depth)
	}
}

func TestParseArgs_Errors(t *testing.T) {
	tests := []struct {
		name string
		args map[string]string
		want string
	}{
		{"unknown key", map[string]string{"device": "d", "segment": "s", "colour": "red"}, "colour"},
		{"missing device", map[string]string{"segment": "s"}, "device is required"},
		{"missing segment", map[string]string{"device": "d"}, "segment is required"},
		{"bad index", map[string]string{"device": "d", "segment": "s", "index1": "x"}, "index1"},
		{"index overflow", map[string]string{"device": "d", "segment": "s", "index2": "0x100000000"}, "index2"},
		{"bad vhca", map[string]string{"device": "d", "segment": "s", "vhca_id": "-2"}, "vhca_id"},
		{"bad num_of_obj", map[string]string{"device": "d", "segment": "s", "num_of_obj2": "some"}, "num_of_obj2"},
		{"bad depth", map[string]string{"device": "d", "segment": "s", "depth": "deep"}, "depth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(tt.args)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}

	_, err := ParseArgs(map[string]string{"device": "d", "segment": "s", "bogus": "1"})
	if !errors.Is(err, ErrUnknownArgument) {
		t.Errorf("expected ErrUnknownArgument, got %v", err)
	}
}

func TestLoadRequest(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "req.yaml", "device: mlx5_0\nsegment: FW_TRACE\ndepth: 2\n")

	req, err := LoadRequest(path)
	if err != nil {
		t.Fatalf("LoadRequest failed: %v", err)
	}
	if req.Segment != "FW_TRACE" || req.Depth == nil || *req.Depth != 2 {
		t.Errorf("unexpected request: %+v", req)
	}

	bad := writeFile(t, dir, "bad.yaml", "device: mlx5_0\nsegment: FW_TRACE\nfilter: x\n")
	if _, err := LoadRequest(bad); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestMenu_Lookup(t *testing.T) {
	menu := testMenu(t)

	tests := []struct {
		selector string
		want     uint16
		ok       bool
	}{
		{"HW_CQPC", 0x1000, true},
		{"hw_sqpc", 0x1010, true},
		{"0x2000", 0x2000, true},
		{"4096", 0x1000, true},
		{"0x3000", 0, false},
		{"UNKNOWN", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			rec, ok := menu.Lookup(tt.selector)
			if ok != tt.ok {
				t.Fatalf("Lookup(%q) ok = %v, want %v", tt.selector, ok, tt.ok)
			}
			if ok && rec.Type != tt.want {
				t.Errorf("Lookup(%q) type = %#x, want %#x", tt.selector, rec.Type, tt.want)
			}
		})
	}
}

func TestLoadMenu_DuplicateType(t *testing.T) {
	yaml := "segments:\n  - {type: 1, name: A}\n  - {type: 1, name: B}\n"
	if _, err := LoadMenu(writeFile(t, t.TempDir(), "menu.yaml", yaml)); err == nil {
		t.Error("expected error for duplicate segment type")
	}
}

func TestVerify(t *testing.T) {
	menu := testMenu(t)

	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"plain segment", Request{Device: "mlx5_0", Segment: "FW_TRACE"}, false},
		{"supported index", Request{Device: "mlx5_0", Segment: "HW_CQPC", Index1: u32(1), NumOfObj1: "4"}, false},
		{"both indices", Request{Device: "mlx5_0", Segment: "HW_SQPC", Index1: u32(1), Index2: u32(2)}, false},
		{"unknown segment", Request{Device: "mlx5_0", Segment: "NOPE"}, true},
		{"other device", Request{Device: "mlx5_1", Segment: "FW_TRACE"}, true},
		{"index not supported", Request{Device: "mlx5_0", Segment: "FW_TRACE", Index1: u32(1)}, true},
		{"num_of_obj not supported", Request{Device: "mlx5_0", Segment: "HW_SQPC", NumOfObj1: "all"}, true},
		{"index2 without index1", Request{Device: "mlx5_0", Segment: "HW_SQPC", Index2: u32(2)}, true},
		{"all without index", Request{Device: "mlx5_0", Segment: "HW_CQPC", NumOfObj1: NumOfObjAll}, false},
		{"active second level", Request{Device: "mlx5_0", Segment: "HW_SQPC", Index1: u32(1), NumOfObj2: NumOfObjActive}, false},
		{"all with index1", Request{Device: "mlx5_0", Segment: "HW_CQPC", Index1: u32(3), NumOfObj1: NumOfObjAll}, true},
		{"active with index1", Request{Device: "mlx5_0", Segment: "HW_CQPC", Index1: u32(3), NumOfObj1: NumOfObjActive}, true},
		{"active with index2", Request{Device: "mlx5_0", Segment: "HW_SQPC", Index1: u32(1), Index2: u32(2), NumOfObj2: NumOfObjActive}, true},
		{"missing segment", Request{Device: "mlx5_0"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(menu, tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Verify error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrUnsupported) {
				t.Errorf("expected ErrUnsupported, got %v", err)
			}
		})
	}
}

type recordingFetcher struct {
	got  Request
	data []byte
}

func (f *recordingFetcher) Fetch(_ context.Context, req Request) ([]byte, error) {
	f.got = req
	return f.data, nil
}

type staticQuerier struct {
	menu *Menu
	err  error
}

func (q staticQuerier) Query(context.Context, string, *int) (*Menu, error) {
	return q.menu, q.err
}

func TestGet_ResolvesSegmentName(t *testing.T) {
	menu := testMenu(t)
	f := &recordingFetcher{data: []byte("0x00000001\n")}

	data, err := Get(t.Context(), staticQuerier{menu: menu}, f, Request{Device: "mlx5_0", Segment: "HW_CQPC"})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != "0x00000001\n" {
		t.Errorf("data = %q", data)
	}
	if f.got.Segment != "0x1000" {
		t.Errorf("fetcher saw segment %q, want 0x1000", f.got.Segment)
	}
}

func TestGet_RejectsUnsupported(t *testing.T) {
	f := &recordingFetcher{}
	_, err := Get(t.Context(), staticQuerier{menu: testMenu(t)}, f, Request{Device: "mlx5_0", Segment: "NOPE"})
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if f.got.Device != "" {
		t.Error("fetcher must not be called for unsupported requests")
	}
}

func TestGet_QueryError(t *testing.T) {
	boom := errors.New("device busy")
	_, err := Get(t.Context(), staticQuerier{err: boom}, &recordingFetcher{}, Request{Device: "d", Segment: "s"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected query error, got %v", err)
	}
}

func TestFileBackedAcquisition(t *testing.T) {
	root := t.TempDir()
	menuPath := writeFile(t, root, "menu.yaml", testMenuYAML)
	writeFile(t, root, "dumps/mlx5_0/0x2000.json", `{"data":[0,0,0,1]}`)
	writeFile(t, root, "dumps/mlx5_0/vhca-2/0x2000.txt", "0x00000002\n")

	q := MenuFileQuerier{Path: menuPath}
	f := DirFetcher{Root: filepath.Join(root, "dumps")}

	data, err := Get(t.Context(), q, f, Request{Device: "mlx5_0", Segment: "FW_TRACE"})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != `{"data":[0,0,0,1]}` {
		t.Errorf("data = %q", data)
	}

	vhca := 2
	data, err = Get(t.Context(), q, f, Request{Device: "mlx5_0", Segment: "0x2000", VHCAID: &vhca})
	if err != nil {
		t.Fatalf("Get with vhca failed: %v", err)
	}
	if string(data) != "0x00000002\n" {
		t.Errorf("data = %q", data)
	}

	_, err = Get(t.Context(), q, f, Request{Device: "mlx5_0", Segment: "HW_SQPC"})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist for missing dump, got %v", err)
	}
}

func TestDirFetcher_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if _, err := (DirFetcher{Root: t.TempDir()}).Fetch(ctx, Request{Device: "d", Segment: "0x0001"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

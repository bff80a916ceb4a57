package config

import (
	"testing"
)

func TestExpandEnv(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		input string
		want  string
	}{
		{"set", map[string]string{"RESDUMP_DEVICE": "mlx5_0"}, "device: ${RESDUMP_DEVICE}", "device: mlx5_0"},
		{"unset", nil, "device: ${RESDUMP_UNSET_DEVICE}", "device: "},
		{"default when unset", nil, "dir: ${RESDUMP_UNSET_DIR:-/var/dumps}", "dir: /var/dumps"},
		{"default when empty", map[string]string{"RESDUMP_DIR": ""}, "dir: ${RESDUMP_DIR:-/var/dumps}", "dir: /var/dumps"},
		{"default ignored", map[string]string{"RESDUMP_DIR": "/data"}, "dir: ${RESDUMP_DIR:-/var/dumps}", "dir: /data"},
		{"several", map[string]string{"RESDUMP_HOST": "cache", "RESDUMP_PORT": "6380"}, "${RESDUMP_HOST}:${RESDUMP_PORT}", "cache:6380"},
		{"literal", nil, "chunk_size: 4", "chunk_size: 4"},
		{"bare dollar", nil, "cost: $5", "cost: $5"},
		{"whole input", nil, "${RESDUMP_UNSET_DEVICE}", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if got := ExpandEnv(tt.input); got != tt.want {
				t.Errorf("ExpandEnv(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExpandEnv_NestedInYAML(t *testing.T) {
	t.Setenv("REDIS_PASS", "secret")
	t.Setenv("DUMP_ROOT", "/srv/dumps")

	input := `adapter:
  type: redis
  url: redis://:${REDIS_PASS}@localhost:6379/0
dump:
  dir: ${DUMP_ROOT}
  menu: ${MENU_PATH:-/etc/resdump/menu.yaml}`

	got := ExpandEnv(input)
	want := `adapter:
  type: redis
  url: redis://:secret@localhost:6379/0
dump:
  dir: /srv/dumps
  menu: /etc/resdump/menu.yaml`

	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

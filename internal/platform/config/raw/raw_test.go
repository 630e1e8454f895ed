package raw

import "testing"

func TestConfGet(t *testing.T) {
	t.Setenv("APP_NAME", " helix ")
	t.Setenv("LOG_FILE", " /var/log/helix.log ")

	root := New()
	logc := root.Prefix("LOG_")

	tests := []struct {
		name string
		conf Conf
		key  string
		def  string
		want string
	}{
		{name: "root trimmed", conf: root, key: "APP_NAME", def: "x", want: "helix"},
		{name: "prefixed hit", conf: logc, key: "FILE", def: "x", want: "/var/log/helix.log"},
		{name: "missing returns default", conf: logc, key: "MISSING", def: "defv", want: "defv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.conf.Get(tt.key, tt.def); got != tt.want {
				t.Fatalf("Get(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestConfGetBool(t *testing.T) {
	c := New().Prefix("LOG_")

	t.Setenv("LOG_T1", "true")
	t.Setenv("LOG_T2", "1")
	t.Setenv("LOG_T3", "YES")
	t.Setenv("LOG_T4", " on ")
	t.Setenv("LOG_F1", "false")
	t.Setenv("LOG_F2", "nope")

	tests := []struct {
		key  string
		def  bool
		want bool
	}{
		{"T1", false, true},
		{"T2", false, true},
		{"T3", false, true},
		{"T4", false, true},
		{"F1", true, false},
		{"F2", true, false},
		{"MISSING", true, true},
		{"MISSING", false, false},
	}

	for _, tt := range tests {
		if got := c.GetBool(tt.key, tt.def); got != tt.want {
			t.Fatalf("GetBool(%q, %v) = %v, want %v", tt.key, tt.def, got, tt.want)
		}
	}
}

func TestConfGetInt(t *testing.T) {
	c := New().Prefix("SYS_")

	t.Setenv("SYS_OK", "42")
	t.Setenv("SYS_WS", "  7 ")
	t.Setenv("SYS_BAD", "4x")
	t.Setenv("SYS_NEG", "-3")

	tests := []struct {
		key  string
		def  int
		want int
	}{
		{"OK", 1, 42},
		{"WS", 1, 7},
		{"BAD", 9, 9},
		{"NEG", 5, 5},
		{"MISSING", 11, 11},
	}
	for _, tt := range tests {
		if got := c.GetInt(tt.key, tt.def); got != tt.want {
			t.Fatalf("GetInt(%q) = %d, want %d", tt.key, got, tt.want)
		}
	}
}

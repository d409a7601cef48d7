package mediaurl

import "testing"

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		base string
		raw  string
		want string
	}{
		{name: "absolute", base: "http://api.local", raw: "https://cdn.example.com/a.jpg", want: "https://cdn.example.com/a.jpg"},
		{name: "rooted", base: "http://api.local/", raw: "/uploads/a.jpg", want: "http://api.local/uploads/a.jpg"},
		{name: "bare_name", base: "http://api.local", raw: "a.jpg", want: "http://api.local/uploads/a.jpg"},
		{name: "empty", base: "http://api.local", raw: "  ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.base, tt.raw); got != tt.want {
				t.Fatalf("Resolve(%q, %q) = %q, want %q", tt.base, tt.raw, got, tt.want)
			}
		})
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{raw: "http://api.local/uploads/a.jpg", want: "a.jpg", wantOK: true},
		{raw: "/uploads/b.png?size=small", want: "b.png", wantOK: true},
		{raw: "http://api.local/uploads/", wantOK: false},
		{raw: "", wantOK: false},
	}

	for _, tt := range tests {
		got, ok := FileName(tt.raw)
		if ok != tt.wantOK || got != tt.want {
			t.Fatalf("FileName(%q) = %q, %v, want %q, %v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

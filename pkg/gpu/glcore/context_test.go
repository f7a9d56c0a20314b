//go:build glfw

package glcore

import "testing"

func TestTranslateSource(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"es header", "#version 300 es\nvoid main() {}", "#version 410 core\nvoid main() {}"},
		{"header only", "#version 300 es", "#version 410 core"},
		{"already desktop", "#version 410 core\nvoid main() {}", "#version 410 core\nvoid main() {}"},
		{"no header", "void main() {}", "void main() {}"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := TranslateSource(tc.in); got != tc.want {
				t.Errorf("TranslateSource(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

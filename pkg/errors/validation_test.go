package errors

import (
	"strings"
	"testing"
)

func TestValidatePackageName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "left-pad", false},
		{"valid with underscore", "my_package", false},
		{"valid with dot", "lodash.merge", false},
		{"valid scoped", "@babel/core", false},
		{"valid legacy upper case", "JSONStream", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 300), true},
		{"path traversal ..", "foo/../bar", true},
		{"path traversal //", "foo//bar", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
		{"space", "foo bar", true},
		{"query", "foo?x=1", true},
		{"unscoped slash", "foo/bar", true},
		{"scope without name", "@scope/", true},
		{"scope without slash", "@scope", true},
		{"nested scope", "@a/b/c", true},
		{"leading dot", ".hidden", true},
		{"leading underscore", "_private", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePackageName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePackageName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && GetCode(err) != ErrCodeInvalidPackage {
				t.Errorf("GetCode() = %v, want %v", GetCode(err), ErrCodeInvalidPackage)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://registry.npmjs.org", false},
		{"http", "http://127.0.0.1:4873", false},

		{"empty", "", true},
		{"ftp", "ftp://example.com", true},
		{"file", "file:///etc/passwd", true},
		{"no scheme", "registry.npmjs.org", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

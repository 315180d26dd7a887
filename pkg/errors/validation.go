package errors

import (
	"strings"
	"unicode"
)

const maxPackageNameLen = 214

// ValidatePackageName rejects names that cannot be npm package names or that
// would escape the URL path they are interpolated into.
//
// Accepted forms are "name" and "@scope/name". Case is not checked because
// legacy packages with upper-case names still exist on the registry.
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}
	if len(name) > maxPackageNameLen {
		return New(ErrCodeInvalidPackage, "package name too long (max %d characters)", maxPackageNameLen)
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidPackage, "package name contains whitespace or control characters")
		}
	}

	for _, pattern := range []string{"..", "//", "\\", "?", "#"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}

	if strings.HasPrefix(name, "@") {
		scope, pkg, ok := strings.Cut(name[1:], "/")
		if !ok || scope == "" || pkg == "" || strings.Contains(pkg, "/") {
			return New(ErrCodeInvalidPackage, "scoped package name must look like @scope/name")
		}
		return nil
	}
	if strings.Contains(name, "/") {
		return New(ErrCodeInvalidPackage, "unscoped package name cannot contain '/'")
	}
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return New(ErrCodeInvalidPackage, "package name cannot start with %q", name[:1])
	}
	return nil
}

// ValidateURL ensures an endpoint URL uses http or https.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme: %q", rawURL)
	}
	return nil
}

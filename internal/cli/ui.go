package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	apperrors "github.com/matzehuels/manifestcheck/pkg/errors"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorRed  = lipgloss.Color("167") // Soft red - errors
	colorGray = lipgloss.Color("245") // Gray - secondary text
)

var (
	styleIconError = lipgloss.NewStyle().Foreground(colorRed)
	styleCode      = lipgloss.NewStyle().Foreground(colorGray)
)

const iconError = "✗"

// =============================================================================
// Error Output
// =============================================================================

// PrintError writes a fatal error to w: the message, its code when the
// error is structured, and a hint for the common failure modes.
func PrintError(w io.Writer, err error) {
	line := styleIconError.Render(iconError) + " " + err.Error()
	fmt.Fprintln(w, line)
	if hint := errorHint(err); hint != "" {
		fmt.Fprintln(w, "  "+styleCode.Render(hint))
	}
}

func errorHint(err error) string {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodePackageNotFound:
		return "the package has no latest version; it might have been unpublished"
	case apperrors.ErrCodeRetriesExhausted:
		return "the registry kept failing; retry later or raise [retry] attempts in the config"
	case apperrors.ErrCodeInvalidManifest:
		return "the registry returned a document without the expected fields"
	case apperrors.ErrCodeInvalidPackage:
		return "package names look like left-pad or @scope/name"
	default:
		return ""
	}
}

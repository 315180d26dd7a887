package npm

import (
	"context"
	"errors"
	"net/url"

	apperrors "github.com/matzehuels/manifestcheck/pkg/errors"
	"github.com/matzehuels/manifestcheck/pkg/integrations"
	"github.com/matzehuels/manifestcheck/pkg/manifest"
)

// manifestPath is the index key of the manifest inside a published tarball.
const manifestPath = "/package.json"

// FetchActual returns the manifest exactly as shipped in the published
// contents of pkg@version.
//
// It resolves the content-addressed identifier of /package.json from the
// version's file index, then fetches that file by its hex digest. Bodies
// that fail to decode are retried under the client's policy; documents that
// decode but lack the expected keys fail with INVALID_MANIFEST.
func (c *Client) FetchActual(ctx context.Context, pkg, version string) (manifest.Manifest, error) {
	pkg = integrations.NormalizePkgName(pkg)

	hex, err := c.fetchManifestHex(ctx, pkg, version)
	if err != nil {
		return manifest.Manifest{}, err
	}

	var file manifestFile
	fileURL := c.webURL + "/package/" + integrations.EscapePkgPath(pkg) + "/file/" + url.PathEscape(hex)
	if err := c.GetValidated(ctx, fileURL, fileSchema, &file); err != nil {
		return manifest.Manifest{}, contentErr(err, "manifest file %s of %s@%s", hex, pkg, version)
	}
	return manifest.New(file.Name, file.Version, file.Dependencies, file.Scripts), nil
}

func (c *Client) fetchManifestHex(ctx context.Context, pkg, version string) (string, error) {
	var index indexResponse
	indexURL := c.webURL + "/package/" + integrations.EscapePkgPath(pkg) + "/v/" + url.PathEscape(version) + "/index"
	if err := c.GetValidated(ctx, indexURL, indexSchema, &index); err != nil {
		return "", contentErr(err, "file index of %s@%s", pkg, version)
	}
	return index.Files[manifestPath].Hex, nil
}

// contentErr keeps a missing content document distinct from a missing
// package: only the registry lookup decides that a package does not exist.
func contentErr(err error, format string, args ...any) error {
	if errors.Is(err, integrations.ErrNotFound) {
		return apperrors.Wrap(apperrors.ErrCodeNetwork, err, format, args...)
	}
	return err
}

type indexResponse struct {
	Files map[string]indexEntry `json:"files"`
}

type indexEntry struct {
	Hex string `json:"hex"`
}

type manifestFile struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
	Scripts      map[string]string `json:"scripts"`
}

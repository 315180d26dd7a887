package npm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/matzehuels/manifestcheck/pkg/errors"
	"github.com/matzehuels/manifestcheck/pkg/integrations"
	"github.com/matzehuels/manifestcheck/pkg/manifest"
)

const (
	// DefaultRegistryURL serves package metadata documents.
	DefaultRegistryURL = "https://registry.npmjs.org"
	// DefaultWebURL serves per-version file indexes and content-addressed files.
	DefaultWebURL = "https://www.npmjs.com"
)

// Config configures a [Client].
type Config struct {
	RegistryURL string // Metadata endpoint base (default: DefaultRegistryURL)
	WebURL      string // File index/content endpoint base (default: DefaultWebURL)
	integrations.Options
}

// Client retrieves both sides of a manifest comparison from npm.
type Client struct {
	*integrations.Client
	registryURL string
	webURL      string
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config) *Client {
	if cfg.RegistryURL == "" {
		cfg.RegistryURL = DefaultRegistryURL
	}
	if cfg.WebURL == "" {
		cfg.WebURL = DefaultWebURL
	}
	return &Client{
		Client:      integrations.NewClient(cfg.Options, nil),
		registryURL: strings.TrimSuffix(cfg.RegistryURL, "/"),
		webURL:      strings.TrimSuffix(cfg.WebURL, "/"),
	}
}

// FetchReported returns the manifest the registry reports for the version
// tagged "latest".
//
// A package with no latest tag (never published, unpublished, renamed) or an
// unknown name yields an error with code PACKAGE_NOT_FOUND that also matches
// [integrations.ErrNotFound]. No partially filled manifest is ever returned.
func (c *Client) FetchReported(ctx context.Context, pkg string) (manifest.Manifest, error) {
	pkg = integrations.NormalizePkgName(pkg)

	var data registryResponse
	url := c.registryURL + "/" + integrations.EscapePkgName(pkg)
	// Registry documents can run to megabytes, so only the latest version
	// entry is schema-checked below; the envelope is bound directly.
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return manifest.Manifest{}, notFound(pkg, err)
		}
		return manifest.Manifest{}, err
	}

	latest := data.DistTags.Latest
	if latest == "" {
		return manifest.Manifest{}, notFound(pkg, integrations.ErrNotFound)
	}
	raw, ok := data.Versions[latest]
	if !ok {
		return manifest.Manifest{}, notFound(pkg, fmt.Errorf("%w: version %s", integrations.ErrNotFound, latest))
	}

	var v versionDetails
	if err := decodeValidated(raw, versionSchema, &v); err != nil {
		return manifest.Manifest{}, apperrors.Wrap(apperrors.ErrCodeInvalidManifest, err,
			"registry entry for %s@%s", pkg, latest)
	}
	return manifest.New(v.Name, latest, v.Dependencies, v.Scripts), nil
}

func notFound(pkg string, cause error) error {
	return apperrors.Wrap(apperrors.ErrCodePackageNotFound,
		fmt.Errorf("%w: npm package %s", cause, pkg),
		"%s has no latest version", pkg)
}

// decodeValidated validates one embedded document before binding it, so a
// single malformed version entry cannot poison the whole registry document.
func decodeValidated(raw json.RawMessage, schema integrations.Validator, v any) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

type registryResponse struct {
	Name     string                     `json:"name"`
	DistTags distTags                   `json:"dist-tags"`
	Versions map[string]json.RawMessage `json:"versions"`
}

type distTags struct {
	Latest string `json:"latest"`
}

type versionDetails struct {
	Name         string            `json:"name"`
	Dependencies map[string]string `json:"dependencies"`
	Scripts      map[string]string `json:"scripts"`
}

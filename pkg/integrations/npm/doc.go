// Package npm retrieves both sides of a manifest comparison from npm.
//
// # Overview
//
// The reported manifest comes from the registry metadata document
// (https://registry.npmjs.org/<name>) for the version tagged "latest". The
// actual manifest is the package.json shipped in that version's published
// contents, located through the per-version file index
// (https://www.npmjs.com/package/<name>/v/<version>/index) and fetched by
// its content-addressed hex digest
// (https://www.npmjs.com/package/<name>/file/<hex>).
//
// # Usage
//
//	client := npm.NewClient(npm.Config{})
//
//	reported, err := client.FetchReported(ctx, "left-pad")
//	if err != nil {
//	    return err
//	}
//	actual, err := client.FetchActual(ctx, "left-pad", reported.Version)
//
// The actual lookup deliberately uses the reported version.
//
// # Errors
//
// A package without a latest tag fails with code PACKAGE_NOT_FOUND. Every
// lookup runs under the client's bounded retry policy: bodies that fail to
// decode, network errors and 5xx responses are retried with backoff.
// Documents that decode but miss expected keys are rejected by an embedded
// JSON schema and fail with INVALID_MANIFEST without retrying.
package npm

// Package integrations provides the shared HTTP layer for registry clients.
//
// # Overview
//
// Registry-specific clients live in subpackages; [npm] is the only one
// today. They embed [Client], which performs GET requests, classifies
// responses and decodes JSON:
//
//   - 200 decodes the body; a body that is not valid JSON is transient
//   - 404 yields [ErrNotFound]
//   - 429, 5xx and network failures are transient
//   - other statuses yield [ErrNetwork] and are not retried
//
// Transient failures are retried under an [httputil.Policy]; each retry is
// logged at warn level and reported to the observability HTTP hooks. When
// attempts run out the error carries code RETRIES_EXHAUSTED and wraps an
// [httputil.ExhaustedError].
//
// # Validation
//
// [Client.GetValidated] checks the decoded document against a [Validator]
// (a compiled JSON schema in practice) before binding it. A document that
// decodes but fails validation is a fatal INVALID_MANIFEST error: retrying
// would return the same document.
//
// [npm]: github.com/matzehuels/manifestcheck/pkg/integrations/npm
// [httputil.Policy]: github.com/matzehuels/manifestcheck/pkg/httputil.Policy
// [httputil.ExhaustedError]: github.com/matzehuels/manifestcheck/pkg/httputil.ExhaustedError
package integrations

// Package openapi exposes the contracts for loading OpenAPI documents and
// extracting validation schemas from their request bodies. Implementations
// live under internal/openapi so kin-openapi types stay out of the public API.
package openapi

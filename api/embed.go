// Package api carries the HTTP API description served under /api/docs.
package api

import _ "embed"

// OpenAPISpec is the OpenAPI 3 document for the region, favorites and probe endpoints.
//
//go:embed openapi.yaml
var OpenAPISpec []byte

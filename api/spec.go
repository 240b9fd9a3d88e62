// Package api embeds the OpenAPI description of the HTTP API.
package api

import _ "embed"

// OpenAPISpec is the OpenAPI document in YAML.
//
//go:embed openapi.yaml
var OpenAPISpec []byte

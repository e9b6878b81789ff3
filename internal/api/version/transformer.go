// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package version

// Transformer is a function that transforms response data for a specific
// API version. It receives the current response data and returns the
// transformed data appropriate for the requested version.
//
// Transformers maintain backwards compatibility across breaking changes.
// For example, if a task field is renamed from "state" to "status", a
// transformer for the old version would map "status" back to "state" so
// old clients continue working.
type Transformer func(data interface{}) interface{}

// transformers maps versions to endpoint-specific transformers.
// Format: version -> endpoint -> transformer function
//
// Currently empty since 2026-08-01 is the initial version.
var transformers = map[string]map[string]Transformer{}

// Transform applies version-specific transformations to response data.
// If no transformer exists for the version/endpoint combination, the
// data is returned unchanged.
func Transform(version, endpoint string, data interface{}) interface{} {
	if version == LatestVersion {
		return data
	}

	versionTransformers, ok := transformers[version]
	if !ok {
		return data
	}

	transformer, ok := versionTransformers[endpoint]
	if !ok {
		return data
	}

	return transformer(data)
}

// RegisterTransformer adds a transformer for a specific version and
// endpoint. This is typically called during init().
func RegisterTransformer(version, endpoint string, t Transformer) {
	if transformers[version] == nil {
		transformers[version] = make(map[string]Transformer)
	}
	transformers[version][endpoint] = t
}

// Package catalog defines service descriptors and loads them from the
// on-disk service catalog.
//
// catalog.json enumerates service config files; each file is one
// ServiceDescriptor: base URL, authentication block, endpoint list,
// capabilities, metadata, and compliance flags. Secrets inside descriptors
// are ${VAR} environment references expanded at load time, and per-service
// base URLs can be overridden with TOOLGATE_<NAME>_BASE_URL.
//
// Loading is tolerant: a missing or invalid descriptor is logged and
// skipped, and startup continues with the rest of the catalog.
package catalog

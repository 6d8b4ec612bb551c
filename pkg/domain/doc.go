// Package domain contains the core domain entities and value types used by the
// application: scan tasks, credentials, protocols, vulnerabilities and scan
// results. These types are free of infrastructure concerns so they can be
// shared across packages.
package domain

// Package domain contains the core business entities, value objects, and
// domain logic of the compute gateway: computations, correlations, AOI
// features, plugin descriptions and the concern taxonomy. It is independent
// of any specific infrastructure or delivery mechanism.
package domain

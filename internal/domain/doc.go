// Package domain defines the core domain types for the sensemaker.
//
// Resources are evaluated along dimensions. Raw assessments are made by
// people through assessment controls; computed assessments are derived from
// raw ones by methods.
//
// # Core Types
//
// Range describes the values a dimension accepts (integer or float bounds).
//
// Dimension is a named scale bound to a range. Computed dimensions are the
// outputs of methods.
//
// ResourceDef declares a kind of resource that can be assessed.
//
// Assessment records a RangeValue for a (resource, dimension) pair.
//
// Method reduces the assessments on its input dimensions into one new
// assessment on its output dimension, using a Program.
//
// AppletConfig bundles everything an applet registers in one go, and
// AssessmentTrayConfig describes which controls a resource shows.
//
// # Addresses
//
// Every committed value is identified by an Address. Entity addresses are
// derived from content; revision addresses identify a single write. The two
// spaces are kept apart by prefix so a caller that mixes them up can be told
// so immediately.
//
// # Design Principles
//
// - Plain value types, hashed by their canonical JSON encoding
// - No storage concerns; the ledger package owns persistence
// - Numeric promotion rules live next to the Program that applies them
package domain

// Package particle holds the per-component particle data model: columnar
// particle storage keyed by dense ids, the sub-instance table with its typed
// per-instance data blob, and the shared buffer heap both draw from.
//
// Index and stride violations are programming errors. They panic with a
// *PreconditionError; the frame scheduler recovers them per runtime so one
// faulty component never stops its siblings.
package particle

// Package flow implements the progressive field engine: given an ordered
// field list and the answers collected so far, it computes the ordered subset
// of fields that should currently be shown and whether the answers for that
// subset satisfy each field's required and format constraints.
//
// Both resolvers are pure. Identical inputs return identical results, nothing
// is cached, and no I/O happens here, so callers re-resolve on every answer
// mutation. Validation always derives its field set from the visibility
// resolver with the same arguments, which keeps rendering and validation from
// ever diverging on which fields are in play; hidden fields can never
// contribute an error.
package flow

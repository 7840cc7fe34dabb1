// Package schema checks resource payloads against the shape their kind
// promises.
//
// Answering functions read payloads through typed accessors such as
// Resource.ListItems or Resource.Date, which quietly return nothing when the
// payload has the wrong shape. Validating on write, and again when a
// snapshot is hydrated, turns those silent misses into explicit errors.
//
// Basic usage:
//
//	if err := schema.Check(domain.KindDate, "2026-05-01"); err != nil {
//	    // not a date payload
//	}
//
//	if err := schema.ValidateSnapshot(snap); err != nil {
//	    for _, e := range schema.ValidationErrors(err) {
//	        log.Println(e)
//	    }
//	}
package schema

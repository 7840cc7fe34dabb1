// Package dsm implements the dialogue state manager.
//
// A Manager tracks the resources a dialogue needs, derives their dependency
// graph, picks the resource in focus for each turn and dispatches the reply to
// answering functions supplied by dialogue modules.
//
// A turn typically looks like:
//
//	m, err := dsm.Hydrate(tmpl, snapshot)
//	// parse layer mutates m through SetState, SetData, AddDynamicResource...
//	ans, err := m.Answer(registry, result)
//	next := m.Serialize() // nil once the dialogue is over
package dsm

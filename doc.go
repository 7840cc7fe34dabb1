/*
Package parley is a dialogue state manager for goal-oriented conversations.

A dialogue is described by a template: a set of resources (the pieces of
information the conversation must gather) linked by a requires relation that
ends in a single Final resource. Each turn, parley hydrates the client's
stored snapshot, lets the dialogue's parse layer mutate resource states, picks
the resource in focus by walking the graph from Final and asks the answering
function registered for it what to say. The new snapshot is persisted, or
discarded once the dialogue finishes or times out.

# Concept

The engine owns the state rules (cascading downgrades, wrapper aggregation,
exclusive groups, focus resolution and expiry) while the host owns language:
a Dialogue implementation turns utterances into mutations and produces the
answers. Storage, template loading and locking sit behind the interfaces in
pkg/ports, so the same dialogue can run in a terminal, behind HTTP or as an
MCP tool.

# Usage

	eng, err := parley.New(
		parley.WithDialogue(myDialogue),
		parley.WithStore(sqliteStore),
	)
	if err != nil {
		log.Fatal(err)
	}

	reply, err := eng.Process(ctx, "client-42", "fruitseller", "I want two apples")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(reply.Answer.Display)

See internal/dialogues/fruitseller for a complete dialogue.
*/
package parley

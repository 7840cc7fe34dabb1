/*
Package domain contains the core data model of the Parley dialogue state manager.

It defines the entities the manager reasons about: typed Resources and their states,
declarative dialogue Templates, persisted Snapshots, and the Answers produced for a turn.
This package is kept pure and free of external dependencies like I/O or persistence,
following Hexagonal Architecture principles.

# Key Entities

  - Resource: One collectible or confirmable fact (a tagged union over Kind).
  - ResourceState: The four-stage ladder plus the skipped/cancelled terminal markers.
  - Template: The declarative definition a dialogue instance is built from.
  - Snapshot: The opaque, round-tripped persisted form of a dialogue instance.
  - Answer: Display and voice text produced for the current turn.
*/
package domain

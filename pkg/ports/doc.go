/*
Package ports defines the driven ports (interfaces) for the Parley engine.

These interfaces decouple the dialogue core from external implementations, allowing
the engine to work with various storage backends and template sources.

# Key Interfaces

  - TemplateLoader: Resolves dialogue templates by name (e.g., from files or memory).
  - SnapshotStore: Persists and loads dialogue snapshots per client.
  - DistributedLocker: Provides distributed locking for concurrent turns of one client.
  - Engine: The turn-processing surface consumed by transport adapters (HTTP, MCP).
*/
package ports

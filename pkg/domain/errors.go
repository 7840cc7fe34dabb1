package domain

import "errors"

// ErrResourceNotFound is returned when a resource name is not part of the dialogue.
var ErrResourceNotFound = errors.New("resource not found")

// ErrInvalidTemplate is returned when a dialogue definition is malformed.
var ErrInvalidTemplate = errors.New("invalid dialogue template")

// ErrNoDynamicResources is returned when a dynamic resource is requested from a template
// that declares none (or not the requested one).
var ErrNoDynamicResources = errors.New("no dynamic resources declared")

// ErrMultipleWrapperParents is returned when a resource could be folded into more than one wrapper.
var ErrMultipleWrapperParents = errors.New("resource has more than one wrapper parent")

// ErrCycle is returned when the requires relation is not acyclic.
var ErrCycle = errors.New("dependency cycle detected")

// ErrInvalidKind is returned when an operation is applied to a resource of the wrong kind.
var ErrInvalidKind = errors.New("invalid resource kind")

// ErrInvalidPayload is returned when data does not match the kind of its resource.
var ErrInvalidPayload = errors.New("payload does not match resource kind")

// ErrMissingFinalAnswer is returned when the Final answering function yields nothing
// for a cancelled dialogue.
var ErrMissingFinalAnswer = errors.New("no answer for cancelled dialogue")

// ErrSnapshotNotFound is returned when no snapshot is stored for a client and dialogue.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrDialogueNotFound is returned when a dialogue name is unknown to the engine or loader.
var ErrDialogueNotFound = errors.New("dialogue not found")

// Package pricing defines the entities placed into an agent session's
// working set: pricing-context items referencing either a raw YAML blob or
// a URL to be transformed by the extraction pipeline.
package pricing

import "time"

// Kind distinguishes the two shapes a PricingContextItem can take.
type Kind string

const (
	KindURL  Kind = "url"
	KindYAML Kind = "yaml"
)

// Origin records who/what introduced the item into the working set.
type Origin string

const (
	OriginUser     Origin = "user"
	OriginDetected Origin = "detected"
	OriginPreset   Origin = "preset"
	OriginAgent    Origin = "agent"
	OriginSphere   Origin = "sphere"
)

// TransformState tracks the lifecycle of a url-kind item's extraction.
type TransformState string

const (
	TransformNotStarted TransformState = "not-started"
	TransformPending    TransformState = "pending"
	TransformDone       TransformState = "done"
	TransformFailed     TransformState = "failed"
)

// Item is a single entity in the agent's pricing-context working set.
//
// Invariants (the first two are checked by Validate; session.Store does not
// call Validate or check any of them):
//   - Kind == KindYAML implies Value is non-empty.
//   - Kind == KindURL && Transform == TransformDone implies ArtifactRef != "".
//   - ID is unique within the owning session.
//   - Kind and Origin never change after creation.
type Item struct {
	ID    string
	Kind  Kind
	Origin Origin

	// Value holds the raw YAML text (Kind == KindYAML) or the canonical URL
	// (Kind == KindURL).
	Value string

	Transform    TransformState
	TransformErr string // terminal error cause when Transform == TransformFailed

	// ArtifactRef references the transformed YAML once available: a blob
	// store id, a cache key, or both. Empty until Transform == TransformDone.
	ArtifactRef string

	Label      string
	Uploaded   bool
	CreatedAt  time.Time
}

// Validate checks the invariants that must hold for any Item regardless of
// its position in a lifecycle transition.
func (it *Item) Validate() error {
	if it.Kind == KindYAML && it.Value == "" {
		return errInvalidItem{"kind=yaml requires a non-empty value"}
	}
	if it.Kind == KindURL && it.Transform == TransformDone && it.ArtifactRef == "" {
		return errInvalidItem{"kind=url with transform=done requires an artifact_ref"}
	}
	return nil
}

type errInvalidItem struct{ reason string }

func (e errInvalidItem) Error() string { return "pricing: invalid item: " + e.reason }

// Package retrieval contains concrete core.Retriever implementations serving
// labeled few-shot examples to the classifier prompt. The interface lives in
// the core package; depend on core.Retriever in calling code and pick an
// implementation at wiring time.
//
// InMemoryIndex is a linear-scan token-overlap index suitable for the small
// curated example sets shipped with the assistant. A semantic/vector backend
// can be added in a sub-package without changing any calling code; per the
// collaborator contract it must return an empty result set, never an error,
// when unavailable.
package retrieval

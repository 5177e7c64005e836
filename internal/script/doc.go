// Package script persists the ordered scene source lines for a project and
// applies submission merges. A submission is classified once, at the boundary,
// into a typed merge request (reset, patch, or resume); the store applies it
// and reports which artifacts the merge invalidated so the pipeline can delete
// them. Scene identity is the 1-based position in the stored list and is never
// renumbered by a merge.
package script

package storyboard

import "errors"

var (
	// ErrLiveObjectMissing means a diff names a node the live scene does not
	// have. The canvas recovers by rebuilding from state.
	ErrLiveObjectMissing = errors.New("storyboard: live object missing")
	// ErrNoImages is returned by a publish export when no image is visible.
	ErrNoImages = errors.New("storyboard: no visible images")
	// ErrEmptyCanvas is returned by an export when nothing is visible.
	ErrEmptyCanvas = errors.New("storyboard: empty canvas")
	// ErrNotFound marks a missing store key, version or node.
	ErrNotFound = errors.New("storyboard: not found")
	// ErrUnknownKind marks a kind tag outside the closed set.
	ErrUnknownKind = errors.New("storyboard: unknown kind")
	// ErrInvalidNode marks a node whose payloads do not match its kind.
	ErrInvalidNode = errors.New("storyboard: invalid node")
	// ErrNoSelection is returned by edits that act on the selection when
	// nothing is selected.
	ErrNoSelection = errors.New("storyboard: nothing selected")
	// ErrGenerating is returned when an image already has a generation
	// pending.
	ErrGenerating = errors.New("storyboard: generation pending")
)

// Package resource resolves the named assets clips refer to: colours, still
// images, image-sequence media, and audio.
//
// A Manager maps keys to live values. Clips never hold assets directly; they
// hold a Link, which names a key, looks the value up on demand with TryGet,
// and forwards change notifications (added, removed, renamed, replaced,
// online, offline) to its owner. Store is the in-process Manager; it can
// persist its entries and reload file-backed ones.
//
// Stores are safe for concurrent use. Links belong to the coordination
// goroutine that owns the clip.
package resource

// Package typing overlays a typed schema on free-form markdown documents.
//
// Types are declared as [Spec] values and built into an immutable [Graph]
// with multi-parent inheritance:
//
//	g, err := typing.Build([]typing.Spec{
//	    {Name: "Media", Fields: []typing.FieldSpec{{Name: "tags"}}},
//	    {Name: "Book", Parents: []string{"Media"}, Folder: "Books",
//	        Fields: []typing.FieldSpec{{Name: "author"}, {Name: "year"}}},
//	})
//
// A [Workspace] publishes the active graph and binds it to a
// [vault.Storage]. [Workspace.Note] resolves a document path to a [Note],
// whose fields are read and written in place through the codecs of package
// fields, and whose filename is split into prefix and title by package
// prefix.
//
// # Inheritance
//
// Keyed entries (fields, actions, methods, hooks) merge by key: a type's own
// entry wins, otherwise the first type in resolution order that declares
// the key. Resolution order is the declared parents, depth-first, each
// ancestor once; in a diamond the first declared parent wins. Unset scalars
// (icon, prefix, style) come from the nearest ancestor that sets them.
// Folder, glob, abstract and createable never inherit.
//
// # Errors
//
//   - [*ConfigError]: the graph could not be built; nothing is published.
//   - [*ResolutionError]: an explicit type request could not be satisfied.
//   - [*HookError]: an operation succeeded but its lifecycle hook failed.
//   - [*vault.Error]: storage failures, returned as is.
//
// Field read failures never surface as errors from [Note.Field]; they
// degrade to absent. Use [Note.Lookup] to see them.
//
// # Concurrency
//
// [Graph] and [Type] are immutable and safe to share. [Workspace] is safe
// for concurrent use; [Workspace.Reload] swaps the graph atomically and
// notes keep the type they were resolved with. There is no per-document
// locking: concurrent writers to one document are last-write-wins.
package typing

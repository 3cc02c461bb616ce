// Package pages reads the document catalog and counts pages.
//
// # Page Tree
//
// Pages are organized as a tree of /Pages nodes with /Page leaves:
//
//	catalog := pages.NewCatalog(root, resolver)
//	tree, err := catalog.PageTree()
//	count, _ := tree.Count()
//
// Count trusts the root /Count entry and falls back to walking /Kids when it
// is absent. The walk keeps the ids on the current path, so a kid that points
// back at one of its ancestors fails with core.ErrReferenceCycle instead of
// recursing forever.
//
// A catalog without a usable /Pages entry is reported as a
// *core.StructuralError. Loading a document never fails for that reason; only
// operations that need the page tree do.
//
// # Inherited Attributes
//
// MediaBox, Resources, Rotate and CropBox may be set on any ancestor node.
// [Page.Inherited] looks an entry up on the page and then on each ancestor,
// nearest first.
package pages

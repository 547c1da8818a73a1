// Package categorical builds and applies category edit transforms.
//
// A Transform describes how the categories of one field are rewritten by a
// merge or a delete-to-unassigned edit: the new category list, a mapping
// from every old category index to its new index, and which old indices were
// absorbed into the target bucket. The same Transform drives the remap of
// codes, per-category colors and visibility, counts, and any highlight
// groups that reference category indices.
package categorical

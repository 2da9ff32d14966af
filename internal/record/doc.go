// Package record defines the stored form of a reaction: the flat YAML record
// held under its index in a shard file.
//
// # Null and Empty
//
// Several fields distinguish null from an empty list because readers use
// the difference:
//
//	approved_by: null     nobody has approved
//	approved_by: []       cannot happen through the review flow
//	rejected_by: null     not rejected, or a rejection was overridden
//	r_rmg_labels: null    no labelling succeeded
//	atom_maps: null       no atom map available
//
// NameList, RoleLabels and AtomMaps preserve a nil value as null on encode
// and decode. Plain slices such as rejected_reasons and the InChI key lists
// are written as [] when empty.
//
// # Atom Maps
//
// atom_maps is always a list of lists. Records written by older tools with a
// single flat list are wrapped on decode.
package record

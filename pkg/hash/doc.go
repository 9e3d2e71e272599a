// Package hash generates stable, short identifiers from filesystem paths.
//
// Every container started from a stack definition is labelled with the
// StackID of its config file, so a later "down" or "prune" in the same
// directory finds exactly the containers that definition created.
//
// The hash is the first 8 characters of MD5(path):
//
//	id := hash.StackID("ephemera.yaml")
//	// Returns: "a1b2c3d4"
package hash

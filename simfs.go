// Package simfs contains core domain types and interfaces for the simulated
// hierarchical file system: node descriptors, listing rows, the persisted
// tree image, and the journal and snapshot collaborators the engine drives.
package simfs

// Version is overridden at build time via -ldflags.
var Version = "dev"

// Package models defines the typed view of a music library and the persistence interfaces for libport.
//
// The package contains two categories of types:
//
// 1. Library views: typed projections over a decoded property list tree
//   - [Library] : Metadata, the Tracks dictionary and the Playlists array of one document
//   - [Track] : A track record with typed fields and an ordered passthrough bag for everything else
//   - [Playlist] : Playlist metadata with its ordered track references
//   - [Summary] : Aggregate counts and the common music folder of a library
//
// Library views write straight back into the tree they were built from, so a decoded document can be
// edited and re-encoded without losing keys this package does not model. [ToTargetTrack] converts a
// source-dialect track into the Music.app dialect.
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [ConversionJob] : One conversion run with its paths, counts and outcome
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models

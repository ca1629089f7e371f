// Package server exposes library operations over HTTP for a UI process.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns, so requests with the wrong method are
// answered with 405 by the mux itself.
//
// # Library Handler
//
// [LibraryHandler] serves one library export:
//
//	GET  /health     liveness probe
//	GET  /library    summary of the source library
//	GET  /playlists  visible playlists
//	POST /convert    converted library as XML, or written to disk with {"write": true}
//
// The library is read from disk on every request, so edits to the export are picked up without a restart.
// Conversions are rate limited.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server

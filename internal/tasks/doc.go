// Package tasks converts music libraries between dialects with real-time progress reporting.
//
// # Core Operations
//
// The [ConversionEngine] interface defines three operations:
//
//  1. [ConversionEngine.Run] : Full Swinsian → Music.app conversion of one export
//     - Checks that the input library and the output directory exist
//     - Loads and decodes the source library
//     - Maps every track and optionally filters playlists ([Converter])
//     - Serializes, post-processes and atomically writes the result
//
//  2. [ConversionEngine.BulkConvert] : Converts several export folders with a worker pool
//     - Each folder is an independent [ConversionEngine.Run]
//     - Partial failures are reported per folder
//
//  3. [ConversionEngine.Verify] : Re-reads a written library with an independent plist decoder
//     - Checks identity fields, persistent ID format and playlist references
//
// The building blocks are exported on their own for callers that hold data in memory: [Load] and [Parse]
// produce a [models.Library], [Converter.Convert] converts it and [Serialize] renders it.
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking. Per-track updates are sampled so large libraries do not
// flood the channel.
//
// # Conversion History
//
// The optional [HistoryRecorder] interface records every run as a [models.ConversionJob]
//
// Recording errors are logged and otherwise ignored so history never blocks a conversion.
//
// # Implementation
//
// [Engine] implements [ConversionEngine] with dependencies on:
//   - [shared.Logger] : Structured logging
//   - [HistoryRecorder] : Optional persistence layer (repositories.ConversionRepository)
package tasks

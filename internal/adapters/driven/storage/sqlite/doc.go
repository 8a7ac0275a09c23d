// Package sqlite provides the local progress cache, a single-table
// embedded store mirroring which resource keys already exist durably.
// The file is safe to delete at any time; it self-heals through resync
// at a one-time performance cost.
package sqlite

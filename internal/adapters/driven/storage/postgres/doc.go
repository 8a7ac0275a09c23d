// Package postgres provides the durable store adapters backed by
// Postgres with the pgvector extension: the resource + embedding writer,
// the keyset-paginated source reader, and the defined-term store.
package postgres

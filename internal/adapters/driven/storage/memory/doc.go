// Package memory provides in-memory implementations of the storage
// ports. They back service tests and carry no durability guarantees.
package memory

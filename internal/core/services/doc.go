// Package services contains the core application logic: the ingestion
// orchestrator, the embedding batcher, and the bilingual term linker.
// Services depend only on domain types and driven ports; adapters are
// injected at wiring time.
package services

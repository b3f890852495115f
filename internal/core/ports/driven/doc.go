// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Capabilities
//
//   - EmbeddingService: Turns text into vectors (OpenAI, Ollama, Gemini)
//   - ChatModel: Completes a message list (OpenAI, Ollama, Anthropic, Gemini)
//   - VectorStore / Collection: Persists chunks and answers nearest-neighbour queries
//   - DocumentLoader / LoaderRegistry: Extracts text units from source files
//   - Chunker / TextProcessor: Cleans and splits text units
//   - PromptStore: Supplies validated prompt templates
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, loader, or postprocessor package
package driven

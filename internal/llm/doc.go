// Package llm provides text-transformation providers backed by remote
// language models. It supports OpenAI, Anthropic and YandexGPT, with
// per-model cost estimation, request rate limiting and a query
// compatibility check used before a run starts.
package llm

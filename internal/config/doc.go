// Package config loads jscontext configuration from a YAML file with
// environment overrides.
//
// Configuration is layered. Load starts from compiled-in defaults, overlays
// the YAML file, then overlays environment variables, so precedence is:
//
//	environment > config file > defaults
//
// A missing config file is not an error; jscontext runs fully on defaults.
// A malformed file, or a final value that cannot work, is.
//
// # Config File
//
// The default location is ~/.jscontext/config.yaml, overridable with the
// --config flag:
//
//	db_path: ~/.jscontext/indices
//	embedder:
//	  provider: jina          # jina | openai | local (empty = auto-detect)
//	  model: jina-embeddings-v3
//	  batch_size: 20
//	indexer:
//	  workers: 8
//	  batch_size: 20
//	  include_tests: true
//	  ignore_patterns:
//	    - "**/fixtures/**"
//	search:
//	  limit: 10
//	  mode: hybrid            # hybrid | vector | keyword
//
// # Environment Variables
//
// Recognized variables, applied after the file:
//
//	JSCONTEXT_DB_PATH             database directory
//	JSCONTEXT_EMBEDDING_PROVIDER  jina | openai | local
//	JSCONTEXT_EMBEDDING_MODEL     provider-specific model name
//	JSCONTEXT_INDEX_WORKERS       indexing worker count
//	JSCONTEXT_SEARCH_LIMIT        default result limit (1-100)
//	JSCONTEXT_SEARCH_MODE         hybrid | vector | keyword
//
// JINA_API_KEY and OPENAI_API_KEY are read by the embedder package itself,
// both for auto-detection and for the provider named here.
package config

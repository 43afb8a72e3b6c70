// Package store's backends are intentionally interchangeable: a CLI
// invocation names inputs and an output, and nothing downstream needs to
// know whether those names resolve to local paths, an in-memory fixture,
// or object-store keys.
//
//	local := store.NewLocalStore("/tmp/build")
//	mem := store.NewMemoryStore()
//
// Remote backends (store/s3, store/minio) implement the same interface
// against their respective SDKs.
package store

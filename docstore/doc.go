// Package docstore is a minimal embedded document store.
//
// Schemaless records (field -> value mappings) are grouped into named
// collections. Each collection is a single flat JSON file:
//
//	<dir>/<id>-<name>.json      {"data": [record | null, ...]}
//	<dir>/<id>-<name>.jsoninfo  creation time as decimal Unix timestamp
//
// <name> is the sanitized collection name (see Sanitize) and <id> is
// a PBKDF2 derivation of the name keyed with Config.Secret.
//
// # Keys
//
// A record is addressed by its key: the zero-based position of its slot
// in the data array. Keys are never stored in records, they are only
// injected into query results (see Result). Insert always appends,
// Delete replaces the slot with null (a tombstone), so keys of other
// records never change.
//
// # Basic Usage
//
//	db, err := docstore.Open(&docstore.Config{
//	    Dir:        "./data",
//	    Secret:     "change me",
//	    AutoCreate: true,
//	})
//	n, err := db.Insert("users", docstore.Record{"name": "A"}, docstore.Record{"name": "B"})
//	res, err := db.Find("users", docstore.Where("name", "A"))
//	n, err = db.Update("users", docstore.Keys(1), docstore.Record{"status": "x"})
//	n, err = db.Delete("users", docstore.Where("name", "A"))
//
// # Concurrency
//
// Every mutation loads the whole collection, changes it in memory and
// rewrites it once, all while holding the collection lock: an in-process
// RWMutex plus an advisory OS file lock shared with other processes.
// Waiting for the OS lock is bounded by Config.Retries * Config.RetryDelay,
// after which the operation fails with ErrUnavailable.
//
// Collection files are rewritten in place. A crash in the middle of
// a write can leave a torn file, which then loads as ErrUnavailable.
package docstore

// Package cli provides the `stratadump` command-line tool for operators of
// cache dumps.
//
// Settings come from an optional JSON or YAML file (--config), then
// STRATADUMP_* environment variables, then flags. Dumps are encrypted with
// the key the secdist document holds for --cache unless --plain is given.
//
// Usage
//
//	# Generate a key and store it in the secdist document
//	stratadump keygen --cache users --write
//
//	# Decrypt and authenticate a dump file end to end
//	stratadump verify /var/cache/stratadump/users/2026-10-19T08:30:00.000000-v1
//
//	# Show and prune the dumps of a cache
//	stratadump list --cache users
//	stratadump cleanup --cache users --max-count 3
//
//	# Snapshot a Redis namespace into a dump and load it back
//	stratadump redis snapshot --cache sessions --redis-addr 127.0.0.1:6379 --key-prefix sessions
//	stratadump redis restore --cache sessions --redis-addr 127.0.0.1:6379 --key-prefix sessions
package cli

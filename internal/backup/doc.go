// Package backup implements the pristine-copy store behind the migration.
//
// The store mirrors each migrated system file by absolute path:
//
//	/data/adb/cjkvf/backup/
//	├── api_level
//	├── manifest.json
//	└── system/
//	    └── etc/
//	        └── fonts.xml
//
// Two invariants drive the design:
//
//   - Copy once. The first copy ever taken of a system file is pristine and is
//     never overwritten. Every install run copies from the store into the
//     module output and transforms that copy, so repeated installs are
//     byte-for-byte idempotent.
//
//   - One marker per run. The api_level file records the API level at the
//     time of the last install. An API change without a privilege helper
//     means the backups may describe a system that no longer exists, which
//     the migrator treats as fatal.
//
// The manifest records SHA-256 hashes and permission bits for every entry so
// a store can be verified before a restore.
package backup

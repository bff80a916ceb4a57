// Package types holds identifiers shared by the wire, storage and
// notification contracts.
package types

// Version is the canonical project version.
// The CLI, frame, record and event contracts all share this version
// (lockstep versioning).
const Version = "0.1.0"

// ContractVersion is stamped into ipc frames, stored records and adapter
// events so consumers can detect format drift.
const ContractVersion = Version

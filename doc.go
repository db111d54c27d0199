// Package linhash implements a single-writer, disk-backed associative
// array from opaque byte-string keys to opaque byte-string values,
// built on Linear Hashing over fixed-size 256-byte pages. The on-disk
// layout grows one bucket at a time and tolerates chains of overflow
// pages per bucket; it does not provide transactions, crash-consistency
// beyond single-sector atomicity, or concurrent multi-writer access.
package linhash

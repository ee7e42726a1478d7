// Package secrets implements ripenv's envelope encryption.
//
// # Encryption Architecture
//
// ripenv encrypts each payload once and hands its key to every team member:
//
//  1. A random 256-bit file key encrypts the payload with NaCl secretbox
//  2. The file key is sealed (NaCl anonymous box) for each recipient's X25519
//     public key and listed in a manifest
//  3. A recipient unlocks their keyfile, unseals their manifest entry, and
//     decrypts the payload
//
// Sealing needs only the recipients' public keys, so whoever encrypts does
// not need a long-term identity key of their own.
//
// # Keyfiles
//
// A keyfile holds the X25519 public key in the clear and the private key
// encrypted with secretbox under a KEK:
//
//	KEK = Argon2id(password, salt, t=2, m=64 MiB, p=1, 32 bytes)
//
// The Argon2id parameters are part of the file format.
//
// # Formats
//
// Payloads are nonce (24 bytes) || ciphertext. Keyfiles, manifests and
// recipients exports are JSON with base64url fields, see internal/codec.
//
// # Failure Semantics
//
// Decrypt, Unseal and UnlockPrivateKey report a wrong key, a wrong password
// and tampered input with one error each. Nothing is retried.
//
// # Key Material
//
// File keys, KEKs and unlocked private keys are wiped as soon as the
// operation using them returns. Nothing in this package caches keys.
package secrets

package core

// Hasher hashes secrets at rest and verifies presented plaintexts against
// stored digests. Verify must run in constant time with respect to the digest.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

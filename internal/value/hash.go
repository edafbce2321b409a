package value

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes.
// Version suffix enables future algorithm migration.
const (
	DomainRecord = "synth/record/v1"
	DomainSchema = "synth/schema/v1"
)

// HashWithDomain computes SHA256(domain + 0x00 + data) as hex.
// The null separator prevents domain/data boundary ambiguity.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RecordHash identifies a generated record by its canonical JSON.
// Two records hash equal iff their canonical forms are identical, which
// makes it usable both for uniqueness checks and for replay comparison.
func RecordHash(v Value) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("RecordHash: failed to marshal: %w", err)
	}
	return HashWithDomain(DomainRecord, canonical), nil
}

// SchemaHash identifies a schema document by its JSON bytes.
func SchemaHash(schemaJSON []byte) string {
	return HashWithDomain(DomainSchema, schemaJSON)
}

// MustRecordHash is like RecordHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRecordHash(v Value) string {
	h, err := RecordHash(v)
	if err != nil {
		panic(err)
	}
	return h
}

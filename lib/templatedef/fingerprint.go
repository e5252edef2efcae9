// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package templatedef

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/discordia-project/discordia/lib/codec"
)

// Fingerprint is a BLAKE3 keyed hash identifying a template's content.
// Two templates with the same authored form have the same fingerprint.
type Fingerprint [32]byte

// fingerprintKey is the ASCII domain name zero-padded to 32 bytes.
var fingerprintKey = [32]byte{
	'd', 'i', 's', 'c', 'o', 'r', 'd', 'i', 'a', '.', 't', 'e', 'm', 'p', 'l', 'a',
	't', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

func (f Fingerprint) String() string { return hex.EncodeToString(f[:]) }

// Short returns the first 12 hex characters, for log lines.
func (f Fingerprint) Short() string { return f.String()[:12] }

func (f Fingerprint) IsZero() bool { return f == Fingerprint{} }

// Fingerprint hashes the deterministic CBOR encoding of the template's
// authored form. Pattern topic functions set in code are not part of
// the authored form and do not affect the result.
func (s ServerTemplate) Fingerprint() (Fingerprint, error) {
	encoded, err := codec.Marshal(s.Spec())
	if err != nil {
		return Fingerprint{}, fmt.Errorf("templatedef: encoding template for fingerprint: %w", err)
	}
	hasher, err := blake3.NewKeyed(fingerprintKey[:])
	if err != nil {
		return Fingerprint{}, fmt.Errorf("templatedef: creating hasher: %w", err)
	}
	hasher.Write(encoded)
	var result Fingerprint
	copy(result[:], hasher.Sum(nil))
	return result, nil
}

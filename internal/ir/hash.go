package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainManifest prefixes manifest digests. The version suffix allows the
// digest layout to change without colliding with stored values.
const DomainManifest = "pipinstall/manifest/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ManifestDigest identifies an expanded manifest by the ordered list of
// dependency URIs it resolves to. Two manifests that differ only in
// canonicalization (Flask vs flask, ~= vs >=) share a digest.
func ManifestDigest(deps []Dependency) (string, error) {
	uris := make([]any, len(deps))
	for i, d := range deps {
		uris[i] = d.URI()
	}
	canonical, err := MarshalCanonical(map[string]any{
		"dependencies": uris,
		"version":      RecordVersion,
	})
	if err != nil {
		return "", fmt.Errorf("ManifestDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainManifest, canonical), nil
}

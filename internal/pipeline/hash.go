package pipeline

import (
	"crypto/sha256"
	"math/big"
	"strings"

	"quizforge/internal/domain"
)

// contentHashLen keeps fingerprints short enough for an indexed jsonb lookup
// while leaving collisions negligible within a 24h dedupe window.
const contentHashLen = 12

// HashContent derives a stable fingerprint from the semantic fields of the
// generated content. Wording and key order do not matter: the variant decides
// which subject/answer pair defines the substance, missing fields fall back
// to the empty string, and the digest is taken over a canonical join. Always
// returns a value.
func HashContent(content domain.Content) string {
	subject, answer := content.SemanticFields()
	canonical := canonicalize(subject) + "\x1e" + canonicalize(answer)
	sum := sha256.Sum256([]byte(canonical))

	encoded := new(big.Int).SetBytes(sum[:]).Text(36)
	if len(encoded) > contentHashLen {
		encoded = encoded[:contentHashLen]
	}
	return encoded
}

// canonicalize collapses whitespace and case so incidental formatting does
// not change the fingerprint.
func canonicalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

package extract

import (
	"encoding/hex"
	"strconv"
	"strings"

	"lukechampine.com/blake3"
)

// HashLength is the number of hex characters kept from a signature hash.
const HashLength = 16

// SignatureHash fingerprints the API surface of fn: name, parameters and
// return type. Line number and source text are left out so that moving a
// function or editing its body does not change the hash.
func SignatureHash(fn ExportedFunction) string {
	var b strings.Builder
	b.WriteString(fn.Name)
	b.WriteByte('\n')
	for _, p := range fn.Parameters {
		b.WriteString(p.Name)
		b.WriteByte('\x1f')
		b.WriteString(normalizeWhitespace(p.Type))
		b.WriteByte('\x1f')
		b.WriteString(normalizeWhitespace(p.DefaultValue))
		b.WriteByte('\x1f')
		b.WriteString(strconv.FormatBool(p.IsOptional))
		b.WriteByte('\x1f')
		b.WriteString(strconv.FormatBool(p.IsRestParameter))
		b.WriteByte('\n')
	}
	b.WriteString(normalizeWhitespace(fn.ReturnType))

	sum := blake3.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:HashLength]
}

// FileHash computes a hash of file content for change detection.
func FileHash(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// normalizeWhitespace collapses runs of whitespace so that reformatting a
// type annotation does not change the hash.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

package queryir

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// DomainQuery separates query fingerprints from any other hash in the system.
const DomainQuery = "querygate/query/v1"

// Fingerprint returns a stable content hash of the query.
//
// Format: hex(SHA256(DomainQuery + 0x00 + canonical JSON)). Strings are NFC
// normalized before hashing, so visually identical column names written
// with different Unicode compositions hash alike.
func Fingerprint(q *Query) (string, error) {
	data, err := MarshalCanonical(q)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(DomainQuery))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// MarshalCanonical serializes the query deterministically: struct field
// order, NFC-normalized strings, no HTML escaping, no trailing newline.
func MarshalCanonical(q *Query) ([]byte, error) {
	n := normalizeStrings(q)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(n); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func normalizeStrings(q *Query) *Query {
	cp := q.Clone()
	cp.DatasetID = norm.NFC.String(cp.DatasetID)
	cp.OrderBy = norm.NFC.String(cp.OrderBy)
	for i := range cp.Select {
		cp.Select[i] = norm.NFC.String(cp.Select[i])
	}
	for i := range cp.GroupBy {
		cp.GroupBy[i] = norm.NFC.String(cp.GroupBy[i])
	}
	for i := range cp.Aggregations {
		cp.Aggregations[i].Column = norm.NFC.String(cp.Aggregations[i].Column)
	}
	for i := range cp.Filters {
		cp.Filters[i].Column = norm.NFC.String(cp.Filters[i].Column)
		cp.Filters[i].Value = normalizeScalar(cp.Filters[i].Value)
	}
	return cp
}

func normalizeScalar(v Scalar) Scalar {
	switch val := v.(type) {
	case String:
		return String(norm.NFC.String(string(val)))
	case List:
		out := make(List, len(val))
		for i, e := range val {
			out[i] = normalizeScalar(e)
		}
		return out
	default:
		return v
	}
}

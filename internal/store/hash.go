package store

import (
	"crypto/sha256"
	"encoding/hex"
)

// domainDocument separates the document-hash namespace from any future
// content-addressed ID this package grows.
const domainDocument = "protoql/document/v1"

// DocumentHash computes a content-addressed hash of the raw document bytes
// compiled for a run, so replay can detect whether the prototype changed
// between invocations without diffing stored query text.
func DocumentHash(raw []byte) string {
	h := sha256.New()
	h.Write([]byte(domainDocument))
	h.Write([]byte{0x00})
	h.Write(raw)
	return hex.EncodeToString(h.Sum(nil))
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfdoc

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"slices"
)

// epochStamp replaces write-time dates when the source carries none.
const epochStamp = "19700101000000"

var (
	// pdfcpu stamps D:YYYYMMDDHHmmSS followed by a +HH'mm' offset.
	writtenDate = regexp.MustCompile(`/(CreationDate|ModDate)\s*\(D:(\d{14})([+-]\d{2}'\d{2}')`)
	sourceDate  = regexp.MustCompile(`/(CreationDate|ModDate)\s*\(D:(\d{14})`)
	fileID      = regexp.MustCompile(`/ID\s*\[\s*<([0-9A-Fa-f]+)>\s*<([0-9A-Fa-f]+)>\s*\]`)
)

// PinVolatile rewrites the values pdfcpu derives from the clock on every
// write: the Info CreationDate and ModDate and the file identifier. Dates
// are carried over from source, or pinned to the epoch when source has
// none; the offset becomes UTC. Identifier halves minted by the write are
// replaced with a digest of source. Every replacement keeps its length, so
// cross-reference offsets stay valid. out is modified in place and returned.
func PinVolatile(out, source []byte) []byte {
	dates := sourceDates(source)
	for _, m := range writtenDate.FindAllSubmatchIndex(out, -1) {
		stamp, ok := dates[string(out[m[2]:m[3]])]
		if !ok {
			stamp = epochStamp
		}
		copy(out[m[4]:m[5]], stamp)
		copy(out[m[6]:m[7]], "+00'00'")
	}

	sum := sha256.Sum256(source)
	digest := hex.EncodeToString(sum[:])
	kept := fileIDs(source)
	for _, m := range fileID.FindAllSubmatchIndex(out, -1) {
		for g := 1; g <= 2; g++ {
			half := out[m[2*g]:m[2*g+1]]
			if slices.Contains(kept, string(half)) {
				continue
			}
			fillHex(half, digest)
		}
	}
	return out
}

func sourceDates(source []byte) map[string]string {
	dates := make(map[string]string, 2)
	for _, m := range sourceDate.FindAllSubmatch(source, -1) {
		key := string(m[1])
		if _, seen := dates[key]; !seen {
			dates[key] = string(m[2])
		}
	}
	if _, ok := dates["ModDate"]; !ok {
		if c, ok := dates["CreationDate"]; ok {
			dates["ModDate"] = c
		}
	}
	return dates
}

func fileIDs(source []byte) []string {
	var ids []string
	for _, m := range fileID.FindAllSubmatch(source, -1) {
		ids = append(ids, string(m[1]), string(m[2]))
	}
	return ids
}

func fillHex(dst []byte, digest string) {
	for i := range dst {
		dst[i] = digest[i%len(digest)]
	}
}

// Package addressutil formats raw addresses the way logs and operator
// tooling expect to read them: EIP-55 checksummed hex.
package addressutil

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/ethereum/go-ethereum/common"
)

// Checksum returns the EIP-55 checksummed hex string for addr, e.g.
// "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B".
func Checksum(addr common.Address) string {
	lower := hex.EncodeToString(addr[:])

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	hash := h.Sum(nil)

	out := make([]byte, 2+len(lower))
	copy(out, "0x")
	for i, c := range []byte(lower) {
		if c >= '0' && c <= '9' {
			out[2+i] = c
			continue
		}
		var nibble byte
		if i%2 == 0 {
			nibble = (hash[i>>1] >> 4) & 0x0f
		} else {
			nibble = hash[i>>1] & 0x0f
		}
		if nibble >= 8 {
			out[2+i] = byte(strings.ToUpper(string(c))[0])
		} else {
			out[2+i] = c
		}
	}
	return string(out)
}

package util

import (
	"math"
	"regexp"
	"strings"
)

// Validation predicates for user-supplied blockchain values. These are pure
// functions and never touch the network; they guard the transaction and
// contract layers before any RPC interaction happens.

var btcAddressRe = regexp.MustCompile(`^(bc1|[13])[a-zA-HJ-NP-Z0-9]{25,59}$`)

// IsHex reports whether s is a hexadecimal string, with or without the 0x
// prefix. If size is positive, the string must encode exactly size bytes.
func IsHex(s string, size int) bool {
	s = strings.TrimPrefix(s, "0x")
	if size > 0 && len(s) != size*2 {
		return false
	}
	if len(s)%2 != 0 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// IsAddress reports whether s is a well-formed EVM address: a 0x prefix
// followed by exactly 40 hex characters. Checksum casing is not checked,
// use IsChecksumAddress for that.
func IsAddress(s string) bool {
	return strings.HasPrefix(s, "0x") && IsHex(s[2:], AddressSize)
}

// IsChecksumAddress reports whether s is a well-formed EVM address whose
// mixed-case hex digits satisfy the EIP-55 checksum. All-lowercase and
// all-uppercase addresses carry no checksum and are accepted as valid.
func IsChecksumAddress(s string) bool {
	if !IsAddress(s) {
		return false
	}
	body := s[2:]
	hasLower := strings.ContainsAny(body, "abcdef")
	hasUpper := strings.ContainsAny(body, "ABCDEF")
	if !hasLower || !hasUpper {
		// No mixed case, nothing to verify.
		return true
	}
	a, err := AddressFromString(strings.ToLower(s))
	if err != nil {
		return false
	}
	return body == checksumHex(a)
}

// IsTxHash reports whether s is a well-formed transaction hash: a 0x prefix
// followed by exactly 64 hex characters.
func IsTxHash(s string) bool {
	return strings.HasPrefix(s, "0x") && IsHex(s[2:], HashSize)
}

// IsBlockHash reports whether s is a well-formed block hash. It's the same
// shape as a transaction hash on EVM chains.
func IsBlockHash(s string) bool {
	return IsTxHash(s)
}

// IsPrivateKey reports whether s is a well-formed 32-byte private key in
// hex, with or without the 0x prefix.
func IsPrivateKey(s string) bool {
	return IsHex(s, 32)
}

// IsValidAmount reports whether f is usable as a transfer amount: a finite,
// non-negative number.
func IsValidAmount(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0
}

// ValidateAddress validates an address for the given chain name. EVM-style
// chains use hex addresses, other supported chains have their own formats.
func ValidateAddress(address, chain string) bool {
	switch strings.ToLower(chain) {
	case "ethereum", "eth", "evm":
		return IsAddress(address)
	case "solana", "sol":
		return len(address) == 44
	case "bitcoin", "btc":
		return btcAddressRe.MatchString(address)
	default:
		return false
	}
}

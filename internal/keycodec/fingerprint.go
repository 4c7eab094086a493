package keycodec

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
)

// Fingerprint is the MD5 digest of a public-key blob, as shown by
// "ssh-keygen -l -E md5" (RFC 4716 §4).
type Fingerprint [md5.Size]byte

// String renders the digest as lowercase hex octets separated by colons.
func (f Fingerprint) String() string {
	var b strings.Builder
	for i, octet := range f {
		if i > 0 {
			b.WriteByte(':')
		}
		fmt.Fprintf(&b, "%02x", octet)
	}
	return b.String()
}

// Fingerprint returns the MD5 fingerprint of the key's public blob.
func (k *RSAPrivateKey) Fingerprint() Fingerprint {
	return md5.Sum(k.PublicKeyBlob())
}

// FingerprintSHA256 returns the fingerprint in the "SHA256:<base64>" form
// that current OpenSSH releases display.
func (k *RSAPrivateKey) FingerprintSHA256() string {
	hash := sha256.Sum256(k.PublicKeyBlob())
	return "SHA256:" + base64.RawStdEncoding.EncodeToString(hash[:])
}

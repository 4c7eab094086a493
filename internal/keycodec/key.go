// Package keycodec parses PEM-encoded RSA private keys and derives the
// OpenSSH public-key line and fingerprints from them.
package keycodec

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/ssh"
)

// DefaultComment is attached to public-key lines and agent identities when
// the caller does not supply one.
const DefaultComment = "Ansible private key"

const pemTypePKCS1 = "RSA PRIVATE KEY"

// RSAPrivateKey holds the numeric fields of a two-prime RSA key.
// Values are copied in and out, so a key never changes after construction.
type RSAPrivateKey struct {
	n, e, d, p, q *big.Int
}

// Parse reads an unencrypted RSA private key from PEM text. PKCS#1, PKCS#8
// and OpenSSH containers are accepted. Any failure is a *FormatError.
func Parse(pemText string) (*RSAPrivateKey, error) {
	text := strings.TrimSpace(pemText)
	if text == "" {
		return nil, &FormatError{Reason: "empty input"}
	}
	if block, _ := pem.Decode([]byte(text)); block == nil {
		return nil, &FormatError{Reason: "no PEM block found"}
	}

	raw, err := ssh.ParseRawPrivateKey([]byte(text))
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, &FormatError{Reason: "key is passphrase protected", Cause: err}
		}
		return nil, &FormatError{Reason: "malformed key data", Cause: err}
	}

	priv, ok := raw.(*rsa.PrivateKey)
	if !ok {
		return nil, &FormatError{Reason: fmt.Sprintf("unsupported key type %T", raw)}
	}
	if len(priv.Primes) != 2 {
		return nil, &FormatError{Reason: fmt.Sprintf("expected 2 primes, got %d", len(priv.Primes))}
	}

	return NewRSAPrivateKey(priv.N, big.NewInt(int64(priv.E)), priv.D, priv.Primes[0], priv.Primes[1])
}

// NewRSAPrivateKey builds a key from its components and checks that they
// describe a consistent RSA key.
func NewRSAPrivateKey(n, e, d, p, q *big.Int) (*RSAPrivateKey, error) {
	fields := []struct {
		name string
		v    *big.Int
	}{{"n", n}, {"e", e}, {"d", d}, {"p", p}, {"q", q}}
	for _, f := range fields {
		if f.v == nil || f.v.Sign() <= 0 {
			return nil, &FormatError{Reason: fmt.Sprintf("%s must be positive", f.name)}
		}
	}
	// rsa.PublicKey carries E as an int.
	if e.BitLen() > 31 {
		return nil, &FormatError{Reason: "public exponent too large"}
	}

	k := &RSAPrivateKey{
		n: new(big.Int).Set(n),
		e: new(big.Int).Set(e),
		d: new(big.Int).Set(d),
		p: new(big.Int).Set(p),
		q: new(big.Int).Set(q),
	}
	if err := k.rsaKey().Validate(); err != nil {
		return nil, &FormatError{Reason: "inconsistent key fields", Cause: err}
	}
	return k, nil
}

// N returns the modulus.
func (k *RSAPrivateKey) N() *big.Int { return new(big.Int).Set(k.n) }

// E returns the public exponent.
func (k *RSAPrivateKey) E() *big.Int { return new(big.Int).Set(k.e) }

// D returns the private exponent.
func (k *RSAPrivateKey) D() *big.Int { return new(big.Int).Set(k.d) }

// P returns the first prime factor.
func (k *RSAPrivateKey) P() *big.Int { return new(big.Int).Set(k.p) }

// Q returns the second prime factor.
func (k *RSAPrivateKey) Q() *big.Int { return new(big.Int).Set(k.q) }

// MarshalPEM re-encodes the key as a PKCS#1 "RSA PRIVATE KEY" block.
func (k *RSAPrivateKey) MarshalPEM() []byte {
	priv := k.rsaKey()
	priv.Precompute()
	return pem.EncodeToMemory(&pem.Block{
		Type:  pemTypePKCS1,
		Bytes: x509.MarshalPKCS1PrivateKey(priv),
	})
}

func (k *RSAPrivateKey) rsaKey() *rsa.PrivateKey {
	return &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{
			N: k.N(),
			E: int(k.e.Int64()),
		},
		D:      k.D(),
		Primes: []*big.Int{k.P(), k.Q()},
	}
}

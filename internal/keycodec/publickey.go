package keycodec

import (
	"encoding/base64"
	"math/big"

	"golang.org/x/crypto/ssh"
)

// rsaPublicBlob is the wire layout of an ssh-rsa public key.
type rsaPublicBlob struct {
	Name string
	E    *big.Int
	N    *big.Int
}

// PublicKeyBlob returns the SSH wire encoding of the public half:
// string "ssh-rsa", mpint e, mpint n.
func (k *RSAPrivateKey) PublicKeyBlob() []byte {
	return ssh.Marshal(rsaPublicBlob{
		Name: ssh.KeyAlgoRSA,
		E:    k.e,
		N:    k.n,
	})
}

// PublicKeyLine formats the key as an authorized_keys line. An empty comment
// leaves the line with just the algorithm and blob.
func (k *RSAPrivateKey) PublicKeyLine(comment string) string {
	line := ssh.KeyAlgoRSA + " " + base64.StdEncoding.EncodeToString(k.PublicKeyBlob())
	if comment == "" {
		return line
	}
	return line + " " + comment
}

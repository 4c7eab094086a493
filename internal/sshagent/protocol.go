// Package sshagent registers RSA private keys with a running SSH agent over
// its unix control socket.
package sshagent

import (
	"encoding/binary"
	"math/big"

	"golang.org/x/crypto/ssh"
)

const (
	// AuthSockEnv names the environment variable holding the agent socket path.
	AuthSockEnv = "SSH_AUTH_SOCK"

	// AddIdentity is the SSH2_AGENTC_ADD_IDENTITY request type.
	AddIdentity = 17

	agentFailure = 5
	agentSuccess = 6

	// Replies to ADD_IDENTITY are a single status byte.
	maxReplySize = 1 << 10
)

// RSAIdentity is the payload of one ADD_IDENTITY request.
type RSAIdentity struct {
	N, E, D *big.Int
	P, Q    *big.Int
	Comment string
}

// addRSAIdentityMsg is the request body. Iqmp is always sent as zero.
type addRSAIdentityMsg struct {
	Type    string `sshtype:"17"`
	N       *big.Int
	E       *big.Int
	D       *big.Int
	Iqmp    *big.Int
	P       *big.Int
	Q       *big.Int
	Comment string
}

// MarshalAddIdentity encodes an ADD_IDENTITY request body (without the outer
// length frame). Nil components encode as zero.
func MarshalAddIdentity(id RSAIdentity) []byte {
	return ssh.Marshal(&addRSAIdentityMsg{
		Type:    ssh.KeyAlgoRSA,
		N:       orZero(id.N),
		E:       orZero(id.E),
		D:       orZero(id.D),
		Iqmp:    new(big.Int),
		P:       orZero(id.P),
		Q:       orZero(id.Q),
		Comment: id.Comment,
	})
}

// frame prefixes a message with the agent protocol's uint32 length.
func frame(body []byte) []byte {
	out := make([]byte, 4, 4+len(body))
	binary.BigEndian.PutUint32(out, uint32(len(body)))
	return append(out, body...)
}

func orZero(n *big.Int) *big.Int {
	if n == nil {
		return new(big.Int)
	}
	return n
}

// Package keyload loads an RSA private key, derives its public line and
// fingerprints, and optionally hands the key to an SSH agent.
//
// Agent problems never fail a load: they are reported in Result.AgentErr next
// to the already computed values, for the caller to show. The log records
// written here are diagnostics only.
package keyload

import (
	"context"
	"errors"

	"github.com/majorcontext/keyload/internal/keycodec"
	"github.com/majorcontext/keyload/internal/log"
	"github.com/majorcontext/keyload/internal/sshagent"
)

// Options controls a load.
type Options struct {
	// Comment for the public line and agent identity. Empty means
	// keycodec.DefaultComment.
	Comment string
	// Agent requests registration with the SSH agent.
	Agent bool
	// Endpoint is the agent socket path. Empty makes registration fail as
	// unavailable.
	Endpoint string
	// Client dials the agent. Nil means a zero sshagent.Client.
	Client *sshagent.Client
}

// Result is what a load produces for the host to distribute.
type Result struct {
	Fingerprint       keycodec.Fingerprint
	FingerprintSHA256 string
	PublicKey         string
	// Registered is true once the request was sent (and acknowledged, when
	// the client waits for replies).
	Registered bool
	// AgentErr holds the registration failure, if registration was requested.
	AgentErr error
}

// Load parses pemText and, if asked, registers the key with the agent.
// Only a key format error is returned as an error.
func Load(ctx context.Context, pemText string, opts Options) (*Result, error) {
	key, err := keycodec.Parse(pemText)
	if err != nil {
		return nil, err
	}

	comment := opts.Comment
	if comment == "" {
		comment = keycodec.DefaultComment
	}

	res := &Result{
		Fingerprint:       key.Fingerprint(),
		FingerprintSHA256: key.FingerprintSHA256(),
		PublicKey:         key.PublicKeyLine(comment),
	}
	log.Debug("parsed private key", "fingerprint", res.Fingerprint.String())

	if !opts.Agent {
		log.Debug("SSH agent registration disabled")
		return res, nil
	}

	client := opts.Client
	if client == nil {
		client = &sshagent.Client{}
	}
	if err := client.Register(ctx, opts.Endpoint, Identity(key, comment)); err != nil {
		res.AgentErr = err
		var unavailable *sshagent.UnavailableError
		if errors.As(err, &unavailable) {
			log.Debug("ssh-agent unavailable", "error", err)
		} else {
			log.Debug("ssh-agent registration failed", "socket", opts.Endpoint, "error", err)
		}
		return res, nil
	}

	res.Registered = true
	log.Debug("registered key with ssh-agent", "socket", opts.Endpoint, "fingerprint", res.Fingerprint.String())
	return res, nil
}

// Identity maps a parsed key onto the agent wire payload.
func Identity(key *keycodec.RSAPrivateKey, comment string) sshagent.RSAIdentity {
	return sshagent.RSAIdentity{
		N:       key.N(),
		E:       key.E(),
		D:       key.D(),
		P:       key.P(),
		Q:       key.Q(),
		Comment: comment,
	}
}

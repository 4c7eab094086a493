package keycodec

import (
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("reading fixture %s: %v", name, err)
	}
	return string(data)
}

func TestParse_Containers(t *testing.T) {
	want, err := Parse(readFixture(t, "rsa_pkcs1.pem"))
	if err != nil {
		t.Fatalf("Parse(pkcs1): %v", err)
	}

	tests := []string{"rsa_pkcs8.pem", "rsa_openssh.pem"}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := Parse(readFixture(t, name))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			assertSameKey(t, got, want)
		})
	}
}

func TestParse_Fields(t *testing.T) {
	key, err := Parse(readFixture(t, "rsa_pkcs1.pem"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if key.N().BitLen() != 2048 {
		t.Errorf("modulus is %d bits, want 2048", key.N().BitLen())
	}
	if key.E().Int64() != 65537 {
		t.Errorf("E = %v, want 65537", key.E())
	}
	if n := new(big.Int).Mul(key.P(), key.Q()); n.Cmp(key.N()) != 0 {
		t.Error("P*Q != N")
	}
}

func TestParse_RoundTrip(t *testing.T) {
	key, err := Parse(readFixture(t, "rsa_pkcs1.pem"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	again, err := Parse(string(key.MarshalPEM()))
	if err != nil {
		t.Fatalf("Parse(MarshalPEM()): %v", err)
	}
	assertSameKey(t, again, key)
}

func TestParse_Errors(t *testing.T) {
	pkcs1 := readFixture(t, "rsa_pkcs1.pem")
	lines := strings.Split(strings.TrimSpace(pkcs1), "\n")
	// Drop body lines but keep the armor, so the DER is cut short.
	truncated := strings.Join([]string{lines[0], lines[1], lines[2], lines[3], lines[len(lines)-1]}, "\n")
	// Corrupt the base64 body in place.
	badBase64 := strings.Replace(pkcs1, lines[3], "!!!!"+lines[3][4:], 1)

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace", "  \n\t"},
		{"not pem", "ssh-rsa AAAAB3NzaC1yc2E comment"},
		{"missing footer", strings.Join(lines[:len(lines)-1], "\n")},
		{"truncated body", truncated},
		{"bad base64", badBase64},
		{"wrong header", strings.ReplaceAll(pkcs1, "RSA PRIVATE KEY", "CERTIFICATE")},
		{"encrypted", readFixture(t, "rsa_encrypted.pem")},
		{"ecdsa", readFixture(t, "ecdsa.pem")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := Parse(tt.input)
			if err == nil {
				t.Fatal("expected error")
			}
			if key != nil {
				t.Error("Parse should not return a key alongside an error")
			}
			var formatErr *FormatError
			if !errors.As(err, &formatErr) {
				t.Errorf("expected *FormatError, got %T: %v", err, err)
			}
		})
	}
}

func TestParse_EncryptedReason(t *testing.T) {
	_, err := Parse(readFixture(t, "rsa_encrypted.pem"))
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected *FormatError, got %T", err)
	}
	if !strings.Contains(formatErr.Reason, "passphrase") {
		t.Errorf("Reason = %q, want mention of passphrase", formatErr.Reason)
	}
}

func TestNewRSAPrivateKey_Rejects(t *testing.T) {
	key, err := Parse(readFixture(t, "rsa_pkcs1.pem"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	one := big.NewInt(1)

	tests := []struct {
		name          string
		n, e, d, p, q *big.Int
	}{
		{"nil modulus", nil, key.E(), key.D(), key.P(), key.Q()},
		{"zero exponent", key.N(), big.NewInt(0), key.D(), key.P(), key.Q()},
		{"huge exponent", key.N(), new(big.Int).Lsh(one, 40), key.D(), key.P(), key.Q()},
		{"wrong modulus", new(big.Int).Add(key.N(), one), key.E(), key.D(), key.P(), key.Q()},
		{"wrong private exponent", key.N(), key.E(), new(big.Int).Add(key.D(), one), key.P(), key.Q()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRSAPrivateKey(tt.n, tt.e, tt.d, tt.p, tt.q)
			var formatErr *FormatError
			if !errors.As(err, &formatErr) {
				t.Errorf("expected *FormatError, got %v", err)
			}
		})
	}
}

func TestRSAPrivateKey_AccessorsCopy(t *testing.T) {
	key, err := Parse(readFixture(t, "rsa_pkcs1.pem"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	before := key.N()
	key.N().SetInt64(1)
	if key.N().Cmp(before) != 0 {
		t.Error("mutating N() result changed the key")
	}
}

func TestFormatError_Unwrap(t *testing.T) {
	cause := errors.New("asn1: syntax error")
	err := &FormatError{Reason: "malformed key data", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if got := err.Error(); !strings.Contains(got, "malformed key data") || !strings.Contains(got, cause.Error()) {
		t.Errorf("Error() = %q", got)
	}
	if got := (&FormatError{Reason: "empty input"}).Error(); got != "invalid RSA private key: empty input" {
		t.Errorf("Error() = %q", got)
	}
}

func assertSameKey(t *testing.T, got, want *RSAPrivateKey) {
	t.Helper()
	pairs := []struct {
		name      string
		got, want *big.Int
	}{
		{"N", got.N(), want.N()},
		{"E", got.E(), want.E()},
		{"D", got.D(), want.D()},
		{"P", got.P(), want.P()},
		{"Q", got.Q(), want.Q()},
	}
	for _, p := range pairs {
		if p.got.Cmp(p.want) != 0 {
			t.Errorf("%s differs", p.name)
		}
	}
}

// Package auth provides secret hashing (argon2id) for the team password and
// the coach passcode, terminal prompts for setting them, and the bearer
// session tokens issued on sign-in.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/term"
)

// Params are the argon2id cost parameters.
type Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

// DefaultParams are the recommended parameters for interactive logins.
var DefaultParams = Params{
	Time:    3,
	Memory:  64 * 1024,
	Threads: 4,
	KeyLen:  32,
	SaltLen: 16,
}

// ErrMalformedHash is wrapped by errors from decoding a stored hash.
var ErrMalformedHash = errors.New("malformed argon2id hash")

// HashSecret hashes secret with DefaultParams.
// The result has the form $argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>.
func HashSecret(secret string) (string, error) {
	return HashSecretWithParams(secret, DefaultParams)
}

// HashSecretWithParams hashes secret with explicit cost parameters.
func HashSecretWithParams(secret string, p Params) (string, error) {
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(secret), salt, p.Time, p.Memory, p.Threads, p.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// VerifySecret reports whether secret matches encodedHash, using the
// parameters recorded in the hash. The comparison is constant time.
func VerifySecret(secret, encodedHash string) (bool, error) {
	p, salt, want, err := decodeHash(encodedHash)
	if err != nil {
		return false, err
	}

	got := argon2.IDKey([]byte(secret), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

// decodeHash parses an encoded argon2id hash string.
func decodeHash(encodedHash string) (Params, []byte, []byte, error) {
	var p Params

	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return p, nil, nil, fmt.Errorf("%w: expected 6 parts, got %d", ErrMalformedHash, len(parts))
	}
	if parts[1] != "argon2id" {
		return p, nil, nil, fmt.Errorf("%w: algorithm %q", ErrMalformedHash, parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, fmt.Errorf("%w: version: %v", ErrMalformedHash, err)
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedHash, version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return p, nil, nil, fmt.Errorf("%w: params: %v", ErrMalformedHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: key: %v", ErrMalformedHash, err)
	}

	p.KeyLen = uint32(len(key))
	p.SaltLen = len(salt)
	return p, salt, key, nil
}

// ErrEmptySecret is returned when the user enters an empty secret.
var ErrEmptySecret = errors.New("secret cannot be empty")

// ErrSecretMismatch is returned when the confirmation doesn't match.
var ErrSecretMismatch = errors.New("entries do not match")

// Prompter reads hidden input from a terminal.
type Prompter struct {
	Out io.Writer
	// ReadSecret reads one line without echo. Defaults to term.ReadPassword
	// on stdin.
	ReadSecret func() ([]byte, error)
}

// NewTerminalPrompter returns a Prompter on stdin/stdout.
func NewTerminalPrompter() *Prompter {
	return &Prompter{
		Out: os.Stdout,
		ReadSecret: func() ([]byte, error) {
			return term.ReadPassword(int(os.Stdin.Fd()))
		},
	}
}

// Prompt prints prompt and reads a hidden value.
func (p *Prompter) Prompt(prompt string) (string, error) {
	fmt.Fprint(p.Out, prompt)
	secret, err := p.ReadSecret()
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return string(secret), nil
}

// PromptAndConfirm asks for a secret twice and returns it if both match.
func (p *Prompter) PromptAndConfirm(label string) (string, error) {
	secret, err := p.Prompt(fmt.Sprintf("Enter %s: ", label))
	if err != nil {
		return "", err
	}
	if secret == "" {
		return "", ErrEmptySecret
	}

	confirm, err := p.Prompt(fmt.Sprintf("Confirm %s: ", label))
	if err != nil {
		return "", err
	}
	if secret != confirm {
		return "", ErrSecretMismatch
	}
	return secret, nil
}

package objgraph

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/blake2b"
)

// Hasher performs one-way hashing of field values.
type Hasher interface {
	// Hash returns the hash of plaintext as printable text.
	Hash(plaintext []byte) (string, error)
}

// HasherFunc adapts a function to the Hasher interface.
type HasherFunc func(plaintext []byte) (string, error)

// Hash calls f.
func (f HasherFunc) Hash(plaintext []byte) (string, error) {
	return f(plaintext)
}

// digestHasher hex encodes an unsalted digest.
type digestHasher struct {
	sum func() hash.Hash
}

func (h digestHasher) Hash(plaintext []byte) (string, error) {
	d := h.sum()
	d.Write(plaintext)
	return hex.EncodeToString(d.Sum(nil)), nil
}

// SHA256Hasher returns a deterministic SHA-256 hasher (64 hex characters).
func SHA256Hasher() Hasher {
	return digestHasher{sum: sha256.New}
}

// SHA512Hasher returns a deterministic SHA-512 hasher (128 hex characters).
func SHA512Hasher() Hasher {
	return digestHasher{sum: sha512.New}
}

// Blake2bHasher returns a deterministic BLAKE2b-256 hasher (64 hex characters).
func Blake2bHasher() Hasher {
	return digestHasher{sum: func() hash.Hash {
		d, _ := blake2b.New256(nil) // only fails for oversized keys
		return d
	}}
}

// Argon2Params configures Argon2id hashing.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

// DefaultArgon2Params returns the OWASP baseline for Argon2id.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{Time: 1, Memory: 64 * 1024, Threads: 4, KeyLen: 32, SaltLen: 16}
}

// Argon2Hasher returns a salted Argon2id hasher producing PHC strings.
func Argon2Hasher(p Argon2Params) Hasher {
	return HasherFunc(func(plaintext []byte) (string, error) {
		salt := make([]byte, p.SaltLen)
		if _, err := rand.Read(salt); err != nil {
			return "", fmt.Errorf("argon2 salt: %w", err)
		}
		key := argon2.IDKey(plaintext, salt, p.Time, p.Memory, p.Threads, p.KeyLen)
		enc := base64.RawStdEncoding
		return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
			argon2.Version, p.Memory, p.Time, p.Threads,
			enc.EncodeToString(salt), enc.EncodeToString(key)), nil
	})
}

// BcryptHasher returns a salted bcrypt hasher with the given cost.
func BcryptHasher(cost int) Hasher {
	return HasherFunc(func(plaintext []byte) (string, error) {
		out, err := bcrypt.GenerateFromPassword(plaintext, cost)
		if err != nil {
			return "", fmt.Errorf("bcrypt: %w", err)
		}
		return string(out), nil
	})
}

func builtinHashers() map[HashAlgo]Hasher {
	return map[HashAlgo]Hasher{
		HashSHA256:  SHA256Hasher(),
		HashSHA512:  SHA512Hasher(),
		HashBlake2b: Blake2bHasher(),
		HashArgon2:  Argon2Hasher(DefaultArgon2Params()),
		HashBcrypt:  BcryptHasher(bcrypt.DefaultCost),
	}
}

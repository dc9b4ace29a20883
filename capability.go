package objgraph

import (
	"strings"
)

// HashAlgo names a hashing algorithm usable in `graph:",hash=..."`.
type HashAlgo string

const (
	// HashSHA256 is deterministic, hex encoded. Suitable for correlating
	// values across audit records.
	HashSHA256 HashAlgo = "sha256"

	// HashSHA512 is deterministic, hex encoded.
	HashSHA512 HashAlgo = "sha512"

	// HashBlake2b is deterministic BLAKE2b-256, hex encoded.
	HashBlake2b HashAlgo = "blake2b"

	// HashArgon2 is salted Argon2id in PHC string format.
	HashArgon2 HashAlgo = "argon2"

	// HashBcrypt is salted bcrypt.
	HashBcrypt HashAlgo = "bcrypt"
)

var validHashAlgos = map[HashAlgo]bool{
	HashSHA256:  true,
	HashSHA512:  true,
	HashBlake2b: true,
	HashArgon2:  true,
	HashBcrypt:  true,
}

var validMaskTypes = map[MaskType]bool{
	MaskSSN:   true,
	MaskEmail: true,
	MaskPhone: true,
	MaskCard:  true,
	MaskIP:    true,
	MaskUUID:  true,
	MaskIBAN:  true,
	MaskName:  true,
}

// IsValidHashAlgo reports whether algo is a known hash algorithm.
func IsValidHashAlgo(algo HashAlgo) bool {
	return validHashAlgos[algo]
}

// IsValidMaskType reports whether mt is a known mask type.
func IsValidMaskType(mt MaskType) bool {
	return validMaskTypes[mt]
}

// DefaultRedaction replaces values tagged with a bare `redact` option.
const DefaultRedaction = "***"

type sanitizeAction uint8

const (
	actionHash sanitizeAction = iota + 1
	actionMask
	actionRedact
)

// Sanitizer rewrites the text of a primitive before it is emitted. It is
// declared per field with the graph tag and applies to the field's value and,
// for slices and maps, to their direct primitive elements and values.
type Sanitizer struct {
	action sanitizeAction
	arg    string
	nested bool
}

// Action returns the tag option the sanitizer was parsed from, e.g. "hash=sha256".
func (s *Sanitizer) Action() string {
	switch s.action {
	case actionHash:
		return "hash=" + s.arg
	case actionMask:
		return "mask=" + s.arg
	case actionRedact:
		return "redact=" + s.arg
	}
	return ""
}

// forElements returns the sanitizer applied one level down, or nil once the
// direct elements have been reached.
func (s *Sanitizer) forElements() *Sanitizer {
	if s == nil || s.nested {
		return nil
	}
	return &Sanitizer{action: s.action, arg: s.arg, nested: true}
}

func (s *Sanitizer) apply(text string, cfg *config) (string, error) {
	switch s.action {
	case actionRedact:
		return s.arg, nil
	case actionMask:
		masker, ok := cfg.maskers[MaskType(s.arg)]
		if !ok {
			return "", newConfigError(ErrInvalidTag, s.Action(), "")
		}
		return masker.Mask(text), nil
	case actionHash:
		hasher, ok := cfg.hashers[HashAlgo(s.arg)]
		if !ok {
			return "", newConfigError(ErrInvalidTag, s.Action(), "")
		}
		sum, err := hasher.Hash([]byte(text))
		if err != nil {
			return "", newCodecError(ErrHash, err)
		}
		return sum, nil
	}
	return text, nil
}

// parseGraphTag splits a graph tag into the output name and its options.
func parseGraphTag(tag string) (string, []string) {
	parts := strings.Split(tag, ",")
	return strings.TrimSpace(parts[0]), parts[1:]
}

// parseSanitizer validates the options of a graph tag. At most one
// sanitizing option is allowed per field.
func parseSanitizer(field string, opts []string) (*Sanitizer, error) {
	var s *Sanitizer
	for _, raw := range opts {
		opt := strings.TrimSpace(raw)
		if opt == "" {
			continue
		}
		name, arg, hasArg := strings.Cut(opt, "=")
		next := &Sanitizer{arg: arg}
		switch name {
		case "hash":
			if !IsValidHashAlgo(HashAlgo(arg)) {
				return nil, newConfigError(ErrInvalidTag, opt, field)
			}
			next.action = actionHash
		case "mask":
			if !IsValidMaskType(MaskType(arg)) {
				return nil, newConfigError(ErrInvalidTag, opt, field)
			}
			next.action = actionMask
		case "redact":
			next.action = actionRedact
			if !hasArg {
				next.arg = DefaultRedaction
			}
		default:
			return nil, newConfigError(ErrInvalidTag, opt, field)
		}
		if s != nil {
			return nil, newConfigError(ErrInvalidTag, opt, field)
		}
		s = next
	}
	return s, nil
}

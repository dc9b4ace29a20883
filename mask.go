package objgraph

import (
	"fmt"
	"net/netip"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// MaskType names a data format with a masking rule, used as `graph:",mask=..."`.
type MaskType string

const (
	MaskSSN   MaskType = "ssn"   // 123-45-6789 -> ***-**-6789
	MaskEmail MaskType = "email" // alice@example.com -> a***@example.com
	MaskPhone MaskType = "phone" // (555) 123-4567 -> (***) ***-4567
	MaskCard  MaskType = "card"  // 4111111111111111 -> ************1111
	MaskIP    MaskType = "ip"    // 192.168.1.100 -> 192.168.xxx.xxx
	MaskUUID  MaskType = "uuid"  // 550e8400-e29b-... -> 550e8400-****-****-****-************
	MaskIBAN  MaskType = "iban"  // GB82WEST12345698765432 -> GB82**************5432
	MaskName  MaskType = "name"  // John Smith -> J*** S****
)

// Masker hides part of a value while keeping it recognizable.
type Masker interface {
	Mask(value string) string
}

// MaskerFunc adapts a function to the Masker interface.
type MaskerFunc func(string) string

// Mask calls f.
func (f MaskerFunc) Mask(value string) string {
	return f(value)
}

func stars(s string) string {
	return strings.Repeat("*", len(s))
}

func digitsOf(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// lastFour runs keep on the last four digits of value, or stars the whole
// value when it has fewer than four digits.
func lastFour(value string, keep func(digits, last string) string) string {
	d := digitsOf(value)
	if len(d) < 4 {
		return stars(value)
	}
	return keep(d, d[len(d)-4:])
}

// SSNMasker keeps the last four digits of a social security number.
func SSNMasker() Masker {
	return MaskerFunc(func(v string) string {
		return lastFour(v, func(_, last string) string { return "***-**-" + last })
	})
}

// EmailMasker keeps the first character of the local part and the domain.
func EmailMasker() Masker {
	return MaskerFunc(func(v string) string {
		at := strings.LastIndexByte(v, '@')
		if at < 1 {
			return stars(v)
		}
		return v[:1] + "***" + v[at:]
	})
}

// PhoneMasker keeps the last four digits and a hint of the original layout.
func PhoneMasker() Masker {
	return MaskerFunc(func(v string) string {
		return lastFour(v, func(d, last string) string {
			switch {
			case len(d) >= 10 && strings.HasPrefix(v, "("):
				return "(***) ***-" + last
			case len(d) >= 10:
				return "***-***-" + last
			}
			return "***-" + last
		})
	})
}

// CardMasker keeps the last four digits, preserving space or dash grouping.
func CardMasker() Masker {
	return MaskerFunc(func(v string) string {
		return lastFour(v, func(d, last string) string {
			for _, sep := range []string{" ", "-"} {
				if strings.Contains(v, sep) {
					groups := make([]string, (len(d)-1)/4, (len(d)-1)/4+1)
					for i := range groups {
						groups[i] = "****"
					}
					return strings.Join(append(groups, last), sep)
				}
			}
			return strings.Repeat("*", len(d)-4) + last
		})
	})
}

// IPMasker keeps the network half of an address: two octets for IPv4, four
// groups for IPv6.
func IPMasker() Masker {
	return MaskerFunc(func(v string) string {
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return stars(v)
		}
		if addr.Is4() {
			b := addr.As4()
			return fmt.Sprintf("%d.%d.xxx.xxx", b[0], b[1])
		}
		full := addr.StringExpanded()
		groups := strings.Split(full, ":")
		return strings.Join(groups[:4], ":") + ":xxxx:xxxx:xxxx:xxxx"
	})
}

// UUIDMasker keeps the first group of a UUID.
func UUIDMasker() Masker {
	return MaskerFunc(func(v string) string {
		id, err := uuid.Parse(v)
		if err != nil {
			return stars(v)
		}
		return id.String()[:8] + "-****-****-****-************"
	})
}

// IBANMasker keeps the country code, check digits and the last four characters.
func IBANMasker() Masker {
	return MaskerFunc(func(v string) string {
		if len(v) <= 8 {
			return stars(v)
		}
		return v[:4] + stars(v[4:len(v)-4]) + v[len(v)-4:]
	})
}

// NameMasker keeps the initial of each word.
func NameMasker() Masker {
	return MaskerFunc(func(v string) string {
		words := strings.Fields(v)
		for i, w := range words {
			r := []rune(w)
			words[i] = string(r[0]) + strings.Repeat("*", len(r)-1)
		}
		return strings.Join(words, " ")
	})
}

func builtinMaskers() map[MaskType]Masker {
	return map[MaskType]Masker{
		MaskSSN:   SSNMasker(),
		MaskEmail: EmailMasker(),
		MaskPhone: PhoneMasker(),
		MaskCard:  CardMasker(),
		MaskIP:    IPMasker(),
		MaskUUID:  UUIDMasker(),
		MaskIBAN:  IBANMasker(),
		MaskName:  NameMasker(),
	}
}

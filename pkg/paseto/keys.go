package pasetotoken

import (
	"strings"

	paseto "aidanwoods.dev/go-paseto"
)

// Mode selects v4.local (encrypted) or v4.public (signed) tokens.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModePublic Mode = "public"
)

// Keys is the material for one Mode. Public mode may carry only the public
// key, in which case the manager can verify but not issue.
type Keys struct {
	Mode Mode

	Symmetric *paseto.V4SymmetricKey

	Secret *paseto.V4AsymmetricSecretKey
	Public *paseto.V4AsymmetricPublicKey
}

// KeyStrings is the hex-encoded form read from configuration.
type KeyStrings struct {
	Mode Mode

	SymmetricHex string

	SecretHex string
	PublicHex string
}

func LoadKeys(in KeyStrings) (Keys, error) {
	switch in.Mode {
	case ModeLocal:
		return loadLocalKeys(strings.TrimSpace(in.SymmetricHex))
	case ModePublic:
		return loadPublicKeys(strings.TrimSpace(in.SecretHex), strings.TrimSpace(in.PublicHex))
	default:
		return Keys{}, configError("unknown mode %q (use local|public)", in.Mode)
	}
}

func loadLocalKeys(hex string) (Keys, error) {
	if hex == "" {
		return Keys{}, configError("local mode requires a symmetric key")
	}
	k, err := paseto.V4SymmetricKeyFromHex(hex)
	if err != nil {
		return Keys{}, configError("invalid symmetric key hex: %v", err)
	}
	return Keys{Mode: ModeLocal, Symmetric: &k}, nil
}

// loadPublicKeys derives the public key from the secret when only the
// secret is given. An explicit public key wins.
func loadPublicKeys(secHex, pubHex string) (Keys, error) {
	if secHex == "" && pubHex == "" {
		return Keys{}, configError("public mode requires a secret or public key")
	}

	out := Keys{Mode: ModePublic}
	if secHex != "" {
		sk, err := paseto.NewV4AsymmetricSecretKeyFromHex(secHex)
		if err != nil {
			return Keys{}, configError("invalid secret key hex: %v", err)
		}
		pk := sk.Public()
		out.Secret, out.Public = &sk, &pk
	}
	if pubHex != "" {
		pk, err := paseto.NewV4AsymmetricPublicKeyFromHex(pubHex)
		if err != nil {
			return Keys{}, configError("invalid public key hex: %v", err)
		}
		out.Public = &pk
	}
	return out, nil
}

// NewLocalKeys generates a throwaway symmetric key.
func NewLocalKeys() Keys {
	k := paseto.NewV4SymmetricKey()
	return Keys{Mode: ModeLocal, Symmetric: &k}
}

func NewPublicKeys() Keys {
	sk := paseto.NewV4AsymmetricSecretKey()
	pk := sk.Public()
	return Keys{Mode: ModePublic, Secret: &sk, Public: &pk}
}

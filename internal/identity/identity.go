// internal/identity/identity.go

// Package identity supplies the narrow player identity the game core
// needs: a stable id and display name, issued as an ed25519-signed guest
// token. Account-backed identities come from an external provider and
// arrive through the same Identity struct.
package identity

import (
	"crypto/ed25519"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is the full contract between players and the game core.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// tokenExpireSec indicates seconds until guest token expiry
	// (0 => never).
	tokenExpireSec int
)

// Init generates a fresh ed25519 key pair at runtime and reads
// TOKEN_EXPIRE_TIME. Tokens do not survive a restart, which is fine for
// guest identities.
func Init() error {
	var err error
	publicKey, privateKey, err = ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	return parseTokenExpireTime()
}

func parseTokenExpireTime() error {
	duration := os.Getenv("TOKEN_EXPIRE_TIME")
	if duration == "never" || duration == "0" || duration == "" {
		tokenExpireSec = 0
		return nil
	}
	d, err := time.ParseDuration(duration)
	if err != nil {
		return fmt.Errorf("failed to parse token expire time: %w", err)
	}
	tokenExpireSec = int(d.Seconds())
	return nil
}

// adjectives/animals feed guest display names.
var (
	adjectives = []string{"Swift", "Quiet", "Bold", "Lucky", "Clever", "Stern", "Amber", "Cosmic"}
	animals    = []string{"Otter", "Falcon", "Badger", "Lynx", "Heron", "Marten", "Viper", "Puffin"}
)

// NewGuest returns a fresh guest identity with a generated display name.
func NewGuest(r *rand.Rand) Identity {
	return Identity{
		ID:   uuid.NewString(),
		Name: fmt.Sprintf("%s%s%d", adjectives[r.Intn(len(adjectives))], animals[r.Intn(len(animals))], r.Intn(100)),
	}
}

// IssueToken signs the identity into a JWT the client echoes back on
// every connection.
func IssueToken(id Identity) (string, error) {
	claims := jwt.MapClaims{
		"sub":  id.ID,
		"name": id.Name,
	}
	if tokenExpireSec > 0 {
		claims["exp"] = time.Now().Add(time.Duration(tokenExpireSec) * time.Second).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// VerifyToken validates a guest token and recovers the identity.
func VerifyToken(tokenString string) (Identity, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return Identity{}, fmt.Errorf("invalid token")
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fmt.Errorf("invalid jwt claims")
	}
	sub, _ := claims["sub"].(string)
	name, _ := claims["name"].(string)
	if sub == "" {
		return Identity{}, fmt.Errorf("missing sub in jwt")
	}
	return Identity{ID: sub, Name: name}, nil
}

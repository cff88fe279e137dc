// sessiontoken mints a signed session assertion for local testing. The
// identity platform does this in production; this tool stands in for it
// during development. The signing key must be the private half of
// SESSION_PUBLIC_KEY.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/peteywee/fresh-sub000/internal/config"
	"github.com/peteywee/fresh-sub000/internal/security"
)

func main() {
	keyPath := flag.String("key", "", "Private key PEM (inline or file path)")
	user := flag.String("user", "dev-user-001", "Subject user ID")
	email := flag.String("email", "dev@example.com", "Email claim")
	name := flag.String("name", "Dev User", "Display name claim")
	role := flag.String("role", "owner", "Role claim")
	org := flag.String("org", "dev-org-001", "Org ID claim")
	orgName := flag.String("org-name", "Dev Organization", "Org name claim")
	ttl := flag.Duration("ttl", time.Hour, "Assertion lifetime")
	flag.Parse()

	if *keyPath == "" {
		log.Fatal("sessiontoken: -key is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	signer, err := security.ParsePrivateKey(*keyPath)
	if err != nil {
		log.Fatalf("private key: %v", err)
	}
	alg := security.KeyAlg(signer.Public())
	if alg == "" {
		log.Fatal("sessiontoken: key must be RSA or ECDSA")
	}

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"iss":                cfg.SessionIssuer,
		"aud":                cfg.SessionAudience,
		"sub":                *user,
		"iat":                now.Unix(),
		"exp":                now.Add(*ttl).Unix(),
		"email":              *email,
		"name":               *name,
		"role":               *role,
		"orgId":              *org,
		"orgName":            *orgName,
		"onboardingComplete": true,
	}

	token := jwt.NewWithClaims(jwt.GetSigningMethod(alg), claims)
	signed, err := token.SignedString(signer)
	if err != nil {
		log.Fatalf("sign: %v", err)
	}
	fmt.Println(signed)
}

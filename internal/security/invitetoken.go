package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ErrWeakInviteSecret is returned when the invite signing secret is too short.
var ErrWeakInviteSecret = errors.New("invite secret must be at least 32 bytes")

// integrityLen is the number of hex characters kept from the sha256
// fingerprint over (orgId, email, role). 64 bits is enough for a second
// line of defense behind the HMAC.
const integrityLen = 16

// InvitePayload is the decoded, verified content of an invite token. The JSON
// field names are a wire compatibility contract: tokens minted before a
// redeploy must still verify after it.
type InvitePayload struct {
	OrgID     string `json:"orgId"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Exp       int64  `json:"exp"`
	Nonce     string `json:"nonce"`
	Integrity string `json:"integrity"`
}

// InviteCodec mints and verifies self-contained invite tokens of the form
// base64url(payload JSON) + "." + hex(HMAC-SHA256(secret, payload JSON)).
// It is stateless; the secret is fixed at construction and never changes.
type InviteCodec struct {
	secret []byte
	now    func() time.Time
}

// NewInviteCodec returns an InviteCodec signing with secret. The secret must
// be at least 32 bytes; there is no development fallback.
func NewInviteCodec(secret []byte) (*InviteCodec, error) {
	if len(secret) < 32 {
		return nil, ErrWeakInviteSecret
	}
	return &InviteCodec{secret: secret, now: time.Now}, nil
}

// Generate mints an invite token binding orgID, the lower-cased email, and
// role, expiring ttl from now. Returns the opaque token and its payload.
func (c *InviteCodec) Generate(orgID, email, role string, ttl time.Duration) (string, *InvitePayload, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", nil, err
	}
	emailLower := strings.ToLower(strings.TrimSpace(email))
	payload := &InvitePayload{
		OrgID:     orgID,
		Email:     emailLower,
		Role:      role,
		Exp:       c.now().Add(ttl).UnixMilli(),
		Nonce:     hex.EncodeToString(nonce),
		Integrity: integrityFingerprint(orgID, emailLower, role),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", nil, err
	}
	sig := c.sign(raw)
	token := base64.RawURLEncoding.EncodeToString(raw) + "." + hex.EncodeToString(sig)
	return token, payload, nil
}

// Verify checks shape, signature, expiry, and the integrity fingerprint of
// token. Every failure collapses to a single nil result so callers cannot
// leak which check rejected the token.
func (c *InviteCodec) Verify(token string) *InvitePayload {
	encoded, sigHex, ok := strings.Cut(token, ".")
	if !ok || encoded == "" || sigHex == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil
	}
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return nil
	}
	// hmac.Equal is constant-time; the signature is recomputed over the exact
	// bytes that were decoded, not a re-serialization.
	if !hmac.Equal(sig, c.sign(raw)) {
		return nil
	}
	var payload InvitePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}
	if c.now().UnixMilli() > payload.Exp {
		return nil
	}
	if payload.Integrity != integrityFingerprint(payload.OrgID, payload.Email, payload.Role) {
		return nil
	}
	return &payload
}

func (c *InviteCodec) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(payload)
	return mac.Sum(nil)
}

// integrityFingerprint binds the three semantic fields together independently
// of the outer signature. It survives even if payload serialization and the
// signing secret ever diverge.
func integrityFingerprint(orgID, email, role string) string {
	sum := sha256.Sum256([]byte(orgID + "|" + email + "|" + role))
	return hex.EncodeToString(sum[:])[:integrityLen]
}

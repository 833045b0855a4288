package security

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/angelmondragon/samcart-relay/pkg/logger"
)

const signaturePrefix = "sha256="

// Sign returns the lowercase hex HMAC-SHA256 of body under secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature is the hex HMAC-SHA256 of body
// under secret. A "sha256=" prefix is accepted. Blank inputs and malformed
// signatures are rejected; the comparison is constant-time.
func VerifySignature(signature string, body []byte, secret string) bool {
	signature = strings.TrimSpace(signature)
	if signature == "" || secret == "" {
		return false
	}
	if len(signature) > len(signaturePrefix) && strings.EqualFold(signature[:len(signaturePrefix)], signaturePrefix) {
		signature = signature[len(signaturePrefix):]
	}

	provided, err := hex.DecodeString(signature)
	if err != nil || len(provided) != sha256.Size {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}

// SignatureVerifier applies the deployment policy around VerifySignature.
type SignatureVerifier struct {
	secret        string
	allowUnsigned bool
	logger        *logger.Logger
}

// NewSignatureVerifier builds a verifier. allowUnsigned lets requests through
// when no secret is configured and must only be set outside production.
func NewSignatureVerifier(secret string, allowUnsigned bool, logg *logger.Logger) *SignatureVerifier {
	return &SignatureVerifier{
		secret:        strings.TrimSpace(secret),
		allowUnsigned: allowUnsigned,
		logger:        logg,
	}
}

// Verify rejects a missing signature outright. Without a configured secret it
// accepts only when unsigned traffic is allowed, and logs a warning.
func (v *SignatureVerifier) Verify(ctx context.Context, signature string, body []byte) bool {
	if v == nil {
		return false
	}
	if strings.TrimSpace(signature) == "" {
		v.logger.Warn(ctx, "webhook signature missing")
		return false
	}
	if v.secret == "" {
		if v.allowUnsigned {
			v.logger.Warn(ctx, "webhook secret not configured; accepting without verification")
			return true
		}
		v.logger.Warn(ctx, "webhook secret not configured; rejecting request")
		return false
	}
	if !VerifySignature(signature, body, v.secret) {
		v.logger.Warn(ctx, "webhook signature mismatch")
		return false
	}
	return true
}

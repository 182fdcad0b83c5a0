package jwtx

// Signer is our interface for anything that can sign token claims.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
	Validate() error
}

// NewSignerHS256 creates an HS256 signer from a shared secret. The access
// and refresh token classes each get their own signer with an independent
// secret, so compromise of one class never permits forging the other.
func NewSignerHS256(secret []byte) (Signer, error) {
	return newHS256Signer(secret)
}

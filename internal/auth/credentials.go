package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword returns the bcrypt hash of plain. bcrypt salts internally
// and its comparison is constant-time, which is why it replaced the
// platform's original bare-digest scheme.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt hash.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

package auth

import "golang.org/x/crypto/bcrypt"

// VerifyPassword compares a plaintext secret against a stored bcrypt hash.
// bcrypt's comparison is constant-time over the digest.
func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

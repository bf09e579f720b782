package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// GenerateOTP returns a zero-padded 6-digit code.
func GenerateOTP() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// GenerateReferenceCode returns a customer reference such as "SDP1A2B3C4D".
func GenerateReferenceCode() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "SDP" + strings.ToUpper(hex[:8])
}

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
)

// OTPLength is the number of digits in a verification code.
const OTPLength = 6

// otpSpan covers 100000–999999. Codes are drawn from the top nine tenths of
// the six digit space so they never carry a leading zero; the string form and
// the numeric form of a code are always identical.
var otpSpan = big.NewInt(900_000)

// GenerateOTP returns a uniformly random six digit verification code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpan)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100_000), nil
}

// MatchOTP compares a submitted code with the stored one in constant time.
// Codes are compared as strings, never parsed as integers.
func MatchOTP(code, submitted string) bool {
	return subtle.ConstantTimeCompare([]byte(code), []byte(submitted)) == 1
}

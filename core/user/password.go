package user

import (
	"crypto/rand"
	"math/big"
)

const (
	pwdGenLen   = 14
	pwdLower    = "abcdefghijkmnopqrstuvwxyz"
	pwdUpper    = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	pwdDigits   = "23456789"
	pwdSpecials = "!#$%&*+-=?@_"
)

// GeneratePassword returns a random password that satisfies the password policy.
func GeneratePassword() (string, error) {
	all := pwdLower + pwdUpper + pwdDigits + pwdSpecials
	pwd := make([]byte, 0, pwdGenLen)

	// one of each class, then fill
	for _, set := range []string{pwdLower, pwdUpper, pwdDigits, pwdSpecials} {
		c, err := randChar(set)
		if err != nil {
			return "", err
		}
		pwd = append(pwd, c)
	}
	for len(pwd) < pwdGenLen {
		c, err := randChar(all)
		if err != nil {
			return "", err
		}
		pwd = append(pwd, c)
	}

	// shuffle
	for i := len(pwd) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		pwd[i], pwd[j.Int64()] = pwd[j.Int64()], pwd[i]
	}
	return string(pwd), nil
}

func randChar(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, err
	}
	return set[n.Int64()], nil
}

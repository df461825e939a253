package services

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	referralCodeLength  = 6
	referralCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referralMaxAttempts = 100

	joinCodePrefixLength = 4
	joinCodeDigits       = "0123456789"
	joinCodeDigitCount   = 3
)

// TakenFunc reports whether a candidate code is already in use.
type TakenFunc func(ctx context.Context, code string) (bool, error)

// Generate draws candidates from rule until one passes the uniqueness
// check. maxAttempts <= 0 retries without bound. Generation reserves
// nothing; the caller's persisted write is the real uniqueness guarantee
// and a duplicate-key failure there means generate again.
func Generate(ctx context.Context, rule func() (string, error), taken TakenFunc, maxAttempts int) (string, error) {
	for attempt := 0; maxAttempts <= 0 || attempt < maxAttempts; attempt++ {
		code, err := rule()
		if err != nil {
			return "", err
		}
		inUse, err := taken(ctx, code)
		if err != nil {
			return "", err
		}
		if !inUse {
			return code, nil
		}
	}
	return "", ErrGenerationExhausted
}

// ReferralCodeRule draws 6-character uppercase alphanumeric candidates.
func ReferralCodeRule() (string, error) {
	return randomString(referralCodeCharset, referralCodeLength)
}

// JoinCodeRule derives a lowercase 4-letter prefix from the team name,
// padded with 'a' for short names, and appends 3 random digits.
func JoinCodeRule(teamName string) func() (string, error) {
	prefix := joinCodePrefix(teamName)
	return func() (string, error) {
		digits, err := randomString(joinCodeDigits, joinCodeDigitCount)
		if err != nil {
			return "", err
		}
		return prefix + digits, nil
	}
}

func GenerateReferralCode(ctx context.Context, teams TeamStore) (string, error) {
	return Generate(ctx, ReferralCodeRule, teams.IsReferralCodeTaken, referralMaxAttempts)
}

// GenerateJoinCode retries without an attempt cap, matching the observed
// behavior of the join-code path.
func GenerateJoinCode(ctx context.Context, teams TeamStore, teamName string) (string, error) {
	return Generate(ctx, JoinCodeRule(teamName), teams.IsJoinCodeTaken, 0)
}

func randomString(charset string, length int) (string, error) {
	var b strings.Builder
	limit := big.NewInt(int64(len(charset)))
	for i := 0; i < length; i++ {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(charset[idx.Int64()])
	}
	return b.String(), nil
}

func joinCodePrefix(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if b.Len() == joinCodePrefixLength {
			break
		}
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	for b.Len() < joinCodePrefixLength {
		b.WriteByte('a')
	}
	return b.String()
}

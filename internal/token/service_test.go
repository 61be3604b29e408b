package token_test

import (
	"strings"
	"testing"
	"time"

	"contactsapi/internal/token"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newService(t *testing.T) (*token.Service, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 20, 13, 0, 0, 0, time.UTC)}
	svc, err := token.NewService("test-secret", token.WithClock(clock.Now))
	require.NoError(t, err)
	return svc, clock
}

func TestNewService_RequiresSecret(t *testing.T) {
	_, err := token.NewService("")
	require.Error(t, err)
}

func TestSessionToken_RoundTrip(t *testing.T) {
	svc, _ := newService(t)
	userID := uuid.New()

	tok, err := svc.IssueSessionToken(userID, 30*time.Minute)
	require.NoError(t, err)

	got, err := svc.VerifySessionToken(tok)
	require.NoError(t, err)
	require.Equal(t, userID, got)
}

func TestSessionToken_Expiry(t *testing.T) {
	svc, clock := newService(t)
	start := clock.now
	ttl := 30 * time.Minute

	tok, err := svc.IssueSessionToken(uuid.New(), ttl)
	require.NoError(t, err)

	tests := []struct {
		name    string
		at      time.Time
		wantErr bool
	}{
		{name: "Just Issued", at: start},
		{name: "One Second Before Expiry", at: start.Add(ttl - time.Second)},
		{name: "At Expiry", at: start.Add(ttl), wantErr: true},
		{name: "After Expiry", at: start.Add(ttl + time.Hour), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.now = tt.at
			_, err := svc.VerifySessionToken(tok)
			if tt.wantErr {
				require.ErrorIs(t, err, token.ErrInvalidToken)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPurposeIsolation(t *testing.T) {
	svc, _ := newService(t)
	userID := uuid.New()

	session, err := svc.IssueSessionToken(userID, time.Hour)
	require.NoError(t, err)
	reset, err := svc.IssueResetToken(userID, time.Hour)
	require.NoError(t, err)
	verify, err := svc.IssueVerificationToken(userID, time.Hour)
	require.NoError(t, err)

	_, err = svc.VerifySessionToken(reset)
	require.ErrorIs(t, err, token.ErrInvalidToken)
	_, err = svc.VerifySessionToken(verify)
	require.ErrorIs(t, err, token.ErrInvalidToken)

	_, err = svc.VerifyResetToken(session)
	require.ErrorIs(t, err, token.ErrInvalidToken)
	_, err = svc.VerifyResetToken(verify)
	require.ErrorIs(t, err, token.ErrInvalidToken)

	_, err = svc.VerifyVerificationToken(reset)
	require.ErrorIs(t, err, token.ErrInvalidToken)

	got, err := svc.VerifyResetToken(reset)
	require.NoError(t, err)
	require.Equal(t, userID, got)

	got, err = svc.VerifyVerificationToken(verify)
	require.NoError(t, err)
	require.Equal(t, userID, got)
}

func TestResetTokens_AreUnique(t *testing.T) {
	svc, _ := newService(t)
	userID := uuid.New()

	a, err := svc.IssueResetToken(userID, time.Hour)
	require.NoError(t, err)
	b, err := svc.IssueResetToken(userID, time.Hour)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerify_RejectsForeignAndTamperedTokens(t *testing.T) {
	svc, clock := newService(t)
	userID := uuid.New()

	other, err := token.NewService("another-secret", token.WithClock(clock.Now))
	require.NoError(t, err)
	foreign, err := other.IssueSessionToken(userID, time.Hour)
	require.NoError(t, err)

	valid, err := svc.IssueSessionToken(userID, time.Hour)
	require.NoError(t, err)
	parts := strings.Split(valid, ".")
	parts[1] = parts[1] + "x"
	tampered := strings.Join(parts, ".")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, token.Claims{
		Purpose: token.PurposeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
		},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, token.Claims{
		Purpose:          token.PurposeSession,
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()},
	})
	eternal, err := noExpiry.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"Foreign Secret": foreign,
		"Tampered":       tampered,
		"Unsigned":       unsigned,
		"No Expiry":      eternal,
		"Garbage":        "not-a-token",
		"Empty":          "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.VerifySessionToken(tok)
			require.ErrorIs(t, err, token.ErrInvalidToken)
		})
	}
}

func TestIssue_RejectsNonPositiveTTL(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.IssueSessionToken(uuid.New(), 0)
	require.Error(t, err)
}

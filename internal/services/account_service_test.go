package services

import (
	"context"
	"testing"

	"github.com/jo-2640/firstmyapp/internal/apperrors"
	"github.com/stretchr/testify/require"
)

func TestCreateAccountValidation(t *testing.T) {
	svc := NewAccountService(nil)
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		password string
		nickname string
	}{
		{"missing email", "", "secret1", "sunny"},
		{"missing password", "a@b.com", "", "sunny"},
		{"missing nickname", "a@b.com", "secret1", ""},
		{"malformed email", "not-an-email", "secret1", "sunny"},
		{"short password", "a@b.com", "12345", "sunny"},
		{"short nickname", "a@b.com", "secret1", "s"},
		{"long nickname", "a@b.com", "secret1", "this-nickname-is-way-too-long"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateAccount(ctx, tc.email, tc.password, tc.nickname)
			require.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

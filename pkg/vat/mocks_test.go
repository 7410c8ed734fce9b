package vat_test

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockRegistry struct {
	mock.Mock
}

func (m *mockRegistry) CheckVAT(ctx context.Context, countryCode, number string) (bool, error) {
	args := m.Called(ctx, countryCode, number)
	return args.Bool(0), args.Error(1)
}

package vies_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type mockRegistry struct {
	mock.Mock
}

func (m *mockRegistry) CheckVAT(ctx context.Context, countryCode, number string) (bool, error) {
	args := m.Called(ctx, countryCode, number)
	return args.Bool(0), args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, key string) (bool, bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Bool(1), args.Error(2)
}

func (m *mockStore) Set(ctx context.Context, key string, valid bool, ttl time.Duration) error {
	args := m.Called(ctx, key, valid, ttl)
	return args.Error(0)
}

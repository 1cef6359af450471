package finding

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// RepositoryMock is a mock implementation of the Repository interface.
type RepositoryMock struct {
	mock.Mock
}

func (m *RepositoryMock) Submit(ctx context.Context, f *Finding) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

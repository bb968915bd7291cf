package mocks

import "github.com/stretchr/testify/mock"

type MockInspector struct {
	mock.Mock
}

func (m *MockInspector) PageCount(data []byte) (int, error) {
	args := m.Called(data)
	return args.Int(0), args.Error(1)
}

package mocks

import (
	"testing"

	"go.uber.org/mock/gomock"
)

// NewMockInvokerForTest creates a MockInvoker whose controller is finished on cleanup.
func NewMockInvokerForTest(t *testing.T) *MockInvoker {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockInvoker(ctrl)
}

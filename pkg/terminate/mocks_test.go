package terminate_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"golang.org/x/sys/unix"

	"github.com/ja7ad/frogkill/pkg/terminate"
)

type mockSignaler struct{ mock.Mock }

func (m *mockSignaler) Kill(pid int, sig unix.Signal) error {
	return m.Called(pid, sig).Error(0)
}

type mockEscalator struct{ mock.Mock }

func (m *mockEscalator) Escalate(ctx context.Context, req terminate.Request) (terminate.EscalationResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(terminate.EscalationResult), args.Error(1)
}

type mockConfirmer struct{ mock.Mock }

func (m *mockConfirmer) ConfirmEscalation(ctx context.Context, plan terminate.Plan, failedPID int) bool {
	return m.Called(ctx, plan, failedPID).Bool(0)
}

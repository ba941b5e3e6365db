// Package commmock has gomock mocks of the comm interfaces in the mockgen
// layout:
//
//	mockgen -package commmock -destination commmock/comm.go . Sender,Router
package commmock

import (
	context "context"
	reflect "reflect"

	comm "github.com/findy-network/findy-credex/agent/comm"
	gomock "github.com/golang/mock/gomock"
)

// MockSender is a mock of Sender interface.
type MockSender struct {
	ctrl     *gomock.Controller
	recorder *MockSenderMockRecorder
}

// MockSenderMockRecorder is the mock recorder for MockSender.
type MockSenderMockRecorder struct {
	mock *MockSender
}

// NewMockSender creates a new mock instance.
func NewMockSender(ctrl *gomock.Controller) *MockSender {
	mock := &MockSender{ctrl: ctrl}
	mock.recorder = &MockSenderMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockSender) EXPECT() *MockSenderMockRecorder {
	return m.recorder
}

// SendMessage mocks base method.
func (m *MockSender) SendMessage(arg0 context.Context, arg1 *comm.Envelope) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SendMessage", arg0, arg1)
	ret0, _ := ret[0].(error)
	return ret0
}

// SendMessage indicates an expected call of SendMessage.
func (mr *MockSenderMockRecorder) SendMessage(arg0, arg1 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SendMessage", reflect.TypeOf((*MockSender)(nil).SendMessage), arg0, arg1)
}

// SendMessageToService mocks base method.
func (m *MockSender) SendMessageToService(arg0 context.Context, arg1 *comm.Envelope) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SendMessageToService", arg0, arg1)
	ret0, _ := ret[0].(error)
	return ret0
}

// SendMessageToService indicates an expected call of SendMessageToService.
func (mr *MockSenderMockRecorder) SendMessageToService(arg0, arg1 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SendMessageToService", reflect.TypeOf((*MockSender)(nil).SendMessageToService), arg0, arg1)
}

// MockRouter is a mock of Router interface.
type MockRouter struct {
	ctrl     *gomock.Controller
	recorder *MockRouterMockRecorder
}

// MockRouterMockRecorder is the mock recorder for MockRouter.
type MockRouterMockRecorder struct {
	mock *MockRouter
}

// NewMockRouter creates a new mock instance.
func NewMockRouter(ctrl *gomock.Controller) *MockRouter {
	mock := &MockRouter{ctrl: ctrl}
	mock.recorder = &MockRouterMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockRouter) EXPECT() *MockRouterMockRecorder {
	return m.recorder
}

// Routing mocks base method.
func (m *MockRouter) Routing(arg0 context.Context) (comm.Routing, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Routing", arg0)
	ret0, _ := ret[0].(comm.Routing)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Routing indicates an expected call of Routing.
func (mr *MockRouterMockRecorder) Routing(arg0 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Routing", reflect.TypeOf((*MockRouter)(nil).Routing), arg0)
}

var (
	_ comm.Sender = (*MockSender)(nil)
	_ comm.Router = (*MockRouter)(nil)
)

// Package formatmock is a gomock mock of format.Service in the mockgen
// layout:
//
//	mockgen -package formatmock -destination formatmock/service.go . Service
package formatmock

import (
	context "context"
	reflect "reflect"

	data "github.com/findy-network/findy-credex/protocol/issuecredential/data"
	format "github.com/findy-network/findy-credex/protocol/issuecredential/format"
	decorator "github.com/findy-network/findy-credex/std/decorator"
	issuecredential "github.com/findy-network/findy-credex/std/issuecredential"
	gomock "github.com/golang/mock/gomock"
)

// MockService is a mock of Service interface.
type MockService struct {
	ctrl     *gomock.Controller
	recorder *MockServiceMockRecorder
}

// MockServiceMockRecorder is the mock recorder for MockService.
type MockServiceMockRecorder struct {
	mock *MockService
}

// NewMockService creates a new mock instance.
func NewMockService(ctrl *gomock.Controller) *MockService {
	mock := &MockService{ctrl: ctrl}
	mock.recorder = &MockServiceMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockService) EXPECT() *MockServiceMockRecorder {
	return m.recorder
}

var _ format.Service = (*MockService)(nil)

// Family mocks base method.
func (m *MockService) Family() format.Family {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Family")
	ret0, _ := ret[0].(format.Family)
	return ret0
}

// Family indicates an expected call of Family.
func (mr *MockServiceMockRecorder) Family() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Family", reflect.TypeOf((*MockService)(nil).Family))
}

// SupportsFormat mocks base method.
func (m *MockService) SupportsFormat(arg0 string) bool {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SupportsFormat", arg0)
	ret0, _ := ret[0].(bool)
	return ret0
}

// SupportsFormat indicates an expected call of SupportsFormat.
func (mr *MockServiceMockRecorder) SupportsFormat(arg0 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SupportsFormat", reflect.TypeOf((*MockService)(nil).SupportsFormat), arg0)
}

// BuildProposal mocks base method.
func (m *MockService) BuildProposal(arg0 context.Context, arg1 format.ProposalArgs) (*issuecredential.Preview, format.Attached, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "BuildProposal", arg0, arg1)
	ret0, _ := ret[0].(*issuecredential.Preview)
	ret1, _ := ret[1].(format.Attached)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// BuildProposal indicates an expected call of BuildProposal.
func (mr *MockServiceMockRecorder) BuildProposal(arg0, arg1 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BuildProposal", reflect.TypeOf((*MockService)(nil).BuildProposal), arg0, arg1)
}

// BuildOffer mocks base method.
func (m *MockService) BuildOffer(arg0 context.Context, arg1 format.OfferArgs) (*issuecredential.Preview, format.Attached, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "BuildOffer", arg0, arg1)
	ret0, _ := ret[0].(*issuecredential.Preview)
	ret1, _ := ret[1].(format.Attached)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// BuildOffer indicates an expected call of BuildOffer.
func (mr *MockServiceMockRecorder) BuildOffer(arg0, arg1 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BuildOffer", reflect.TypeOf((*MockService)(nil).BuildOffer), arg0, arg1)
}

// BuildRequest mocks base method.
func (m *MockService) BuildRequest(arg0 context.Context, arg1 format.RequestArgs) (format.Attached, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "BuildRequest", arg0, arg1)
	ret0, _ := ret[0].(format.Attached)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// BuildRequest indicates an expected call of BuildRequest.
func (mr *MockServiceMockRecorder) BuildRequest(arg0, arg1 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BuildRequest", reflect.TypeOf((*MockService)(nil).BuildRequest), arg0, arg1)
}

// BuildCredential mocks base method.
func (m *MockService) BuildCredential(arg0 context.Context, arg1 format.CredentialArgs) (format.Issued, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "BuildCredential", arg0, arg1)
	ret0, _ := ret[0].(format.Issued)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// BuildCredential indicates an expected call of BuildCredential.
func (mr *MockServiceMockRecorder) BuildCredential(arg0, arg1 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BuildCredential", reflect.TypeOf((*MockService)(nil).BuildCredential), arg0, arg1)
}

// DecodeProposal mocks base method.
func (m *MockService) DecodeProposal(arg0 decorator.Attachment) (format.Payload, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "DecodeProposal", arg0)
	ret0, _ := ret[0].(format.Payload)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// DecodeProposal indicates an expected call of DecodeProposal.
func (mr *MockServiceMockRecorder) DecodeProposal(arg0 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DecodeProposal", reflect.TypeOf((*MockService)(nil).DecodeProposal), arg0)
}

// DecodeOffer mocks base method.
func (m *MockService) DecodeOffer(arg0 decorator.Attachment) (format.Payload, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "DecodeOffer", arg0)
	ret0, _ := ret[0].(format.Payload)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// DecodeOffer indicates an expected call of DecodeOffer.
func (mr *MockServiceMockRecorder) DecodeOffer(arg0 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DecodeOffer", reflect.TypeOf((*MockService)(nil).DecodeOffer), arg0)
}

// DecodeRequest mocks base method.
func (m *MockService) DecodeRequest(arg0 decorator.Attachment) (format.Payload, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "DecodeRequest", arg0)
	ret0, _ := ret[0].(format.Payload)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// DecodeRequest indicates an expected call of DecodeRequest.
func (mr *MockServiceMockRecorder) DecodeRequest(arg0 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DecodeRequest", reflect.TypeOf((*MockService)(nil).DecodeRequest), arg0)
}

// DecodeCredential mocks base method.
func (m *MockService) DecodeCredential(arg0 decorator.Attachment) (format.Payload, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "DecodeCredential", arg0)
	ret0, _ := ret[0].(format.Payload)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// DecodeCredential indicates an expected call of DecodeCredential.
func (mr *MockServiceMockRecorder) DecodeCredential(arg0 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DecodeCredential", reflect.TypeOf((*MockService)(nil).DecodeCredential), arg0)
}

// ApplyMetadata mocks base method.
func (m *MockService) ApplyMetadata(arg0 format.Payload, arg1 *data.ExchangeRecord) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ApplyMetadata", arg0, arg1)
	ret0, _ := ret[0].(error)
	return ret0
}

// ApplyMetadata indicates an expected call of ApplyMetadata.
func (mr *MockServiceMockRecorder) ApplyMetadata(arg0, arg1 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ApplyMetadata", reflect.TypeOf((*MockService)(nil).ApplyMetadata), arg0, arg1)
}

// StoreCredential mocks base method.
func (m *MockService) StoreCredential(arg0 context.Context, arg1 format.StoreArgs) (data.Binding, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "StoreCredential", arg0, arg1)
	ret0, _ := ret[0].(data.Binding)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// StoreCredential indicates an expected call of StoreCredential.
func (mr *MockServiceMockRecorder) StoreCredential(arg0, arg1 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "StoreCredential", reflect.TypeOf((*MockService)(nil).StoreCredential), arg0, arg1)
}

// ShouldAutoRespondToProposal mocks base method.
func (m *MockService) ShouldAutoRespondToProposal(arg0 context.Context, arg1 format.AutoRespondArgs) bool {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ShouldAutoRespondToProposal", arg0, arg1)
	ret0, _ := ret[0].(bool)
	return ret0
}

// ShouldAutoRespondToProposal indicates an expected call of ShouldAutoRespondToProposal.
func (mr *MockServiceMockRecorder) ShouldAutoRespondToProposal(arg0, arg1 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ShouldAutoRespondToProposal", reflect.TypeOf((*MockService)(nil).ShouldAutoRespondToProposal), arg0, arg1)
}

// ShouldAutoRespondToOffer mocks base method.
func (m *MockService) ShouldAutoRespondToOffer(arg0 context.Context, arg1 format.AutoRespondArgs) bool {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ShouldAutoRespondToOffer", arg0, arg1)
	ret0, _ := ret[0].(bool)
	return ret0
}

// ShouldAutoRespondToOffer indicates an expected call of ShouldAutoRespondToOffer.
func (mr *MockServiceMockRecorder) ShouldAutoRespondToOffer(arg0, arg1 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ShouldAutoRespondToOffer", reflect.TypeOf((*MockService)(nil).ShouldAutoRespondToOffer), arg0, arg1)
}

// ShouldAutoRespondToRequest mocks base method.
func (m *MockService) ShouldAutoRespondToRequest(arg0 context.Context, arg1 format.AutoRespondArgs) bool {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ShouldAutoRespondToRequest", arg0, arg1)
	ret0, _ := ret[0].(bool)
	return ret0
}

// ShouldAutoRespondToRequest indicates an expected call of ShouldAutoRespondToRequest.
func (mr *MockServiceMockRecorder) ShouldAutoRespondToRequest(arg0, arg1 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ShouldAutoRespondToRequest", reflect.TypeOf((*MockService)(nil).ShouldAutoRespondToRequest), arg0, arg1)
}

// ShouldAutoRespondToCredential mocks base method.
func (m *MockService) ShouldAutoRespondToCredential(arg0 context.Context, arg1 format.AutoRespondArgs) bool {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ShouldAutoRespondToCredential", arg0, arg1)
	ret0, _ := ret[0].(bool)
	return ret0
}

// ShouldAutoRespondToCredential indicates an expected call of ShouldAutoRespondToCredential.
func (mr *MockServiceMockRecorder) ShouldAutoRespondToCredential(arg0, arg1 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ShouldAutoRespondToCredential", reflect.TypeOf((*MockService)(nil).ShouldAutoRespondToCredential), arg0, arg1)
}

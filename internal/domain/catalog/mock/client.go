package mock

import (
	context "context"
	reflect "reflect"

	catalog "github.com/pokepacks/pokepacks/internal/domain/catalog"
	gomock "go.uber.org/mock/gomock"
)

// MockClient is a mock of Client interface.
type MockClient struct {
	ctrl     *gomock.Controller
	recorder *MockClientMockRecorder
	isgomock struct{}
}

// MockClientMockRecorder is the mock recorder for MockClient.
type MockClientMockRecorder struct {
	mock *MockClient
}

// NewMockClient creates a new mock instance.
func NewMockClient(ctrl *gomock.Controller) *MockClient {
	mock := &MockClient{ctrl: ctrl}
	mock.recorder = &MockClientMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockClient) EXPECT() *MockClientMockRecorder {
	return m.recorder
}

// GetCard mocks base method.
func (m *MockClient) GetCard(ctx context.Context, id string) (catalog.Card, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetCard", ctx, id)
	ret0, _ := ret[0].(catalog.Card)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetCard indicates an expected call of GetCard.
func (mr *MockClientMockRecorder) GetCard(ctx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetCard", reflect.TypeOf((*MockClient)(nil).GetCard), ctx, id)
}

// GetSet mocks base method.
func (m *MockClient) GetSet(ctx context.Context, id string) (catalog.Set, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetSet", ctx, id)
	ret0, _ := ret[0].(catalog.Set)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetSet indicates an expected call of GetSet.
func (mr *MockClientMockRecorder) GetSet(ctx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetSet", reflect.TypeOf((*MockClient)(nil).GetSet), ctx, id)
}

// SearchCards mocks base method.
func (m *MockClient) SearchCards(ctx context.Context, query string) ([]catalog.Card, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SearchCards", ctx, query)
	ret0, _ := ret[0].([]catalog.Card)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// SearchCards indicates an expected call of SearchCards.
func (mr *MockClientMockRecorder) SearchCards(ctx, query any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SearchCards", reflect.TypeOf((*MockClient)(nil).SearchCards), ctx, query)
}

// SearchSets mocks base method.
func (m *MockClient) SearchSets(ctx context.Context, query string) ([]catalog.Set, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SearchSets", ctx, query)
	ret0, _ := ret[0].([]catalog.Set)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// SearchSets indicates an expected call of SearchSets.
func (mr *MockClientMockRecorder) SearchSets(ctx, query any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SearchSets", reflect.TypeOf((*MockClient)(nil).SearchSets), ctx, query)
}

// MockSnapshotStore is a mock of SnapshotStore interface.
type MockSnapshotStore struct {
	ctrl     *gomock.Controller
	recorder *MockSnapshotStoreMockRecorder
	isgomock struct{}
}

// MockSnapshotStoreMockRecorder is the mock recorder for MockSnapshotStore.
type MockSnapshotStoreMockRecorder struct {
	mock *MockSnapshotStore
}

// NewMockSnapshotStore creates a new mock instance.
func NewMockSnapshotStore(ctrl *gomock.Controller) *MockSnapshotStore {
	mock := &MockSnapshotStore{ctrl: ctrl}
	mock.recorder = &MockSnapshotStoreMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockSnapshotStore) EXPECT() *MockSnapshotStoreMockRecorder {
	return m.recorder
}

// DeleteCards mocks base method.
func (m *MockSnapshotStore) DeleteCards(ctx context.Context, ids []string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "DeleteCards", ctx, ids)
	ret0, _ := ret[0].(error)
	return ret0
}

// DeleteCards indicates an expected call of DeleteCards.
func (mr *MockSnapshotStoreMockRecorder) DeleteCards(ctx, ids any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DeleteCards", reflect.TypeOf((*MockSnapshotStore)(nil).DeleteCards), ctx, ids)
}

// LoadCards mocks base method.
func (m *MockSnapshotStore) LoadCards(ctx context.Context) ([]catalog.Card, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "LoadCards", ctx)
	ret0, _ := ret[0].([]catalog.Card)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// LoadCards indicates an expected call of LoadCards.
func (mr *MockSnapshotStoreMockRecorder) LoadCards(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "LoadCards", reflect.TypeOf((*MockSnapshotStore)(nil).LoadCards), ctx)
}

// LoadSets mocks base method.
func (m *MockSnapshotStore) LoadSets(ctx context.Context) ([]catalog.Set, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "LoadSets", ctx)
	ret0, _ := ret[0].([]catalog.Set)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// LoadSets indicates an expected call of LoadSets.
func (mr *MockSnapshotStoreMockRecorder) LoadSets(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "LoadSets", reflect.TypeOf((*MockSnapshotStore)(nil).LoadSets), ctx)
}

// SaveCards mocks base method.
func (m *MockSnapshotStore) SaveCards(ctx context.Context, cards []catalog.Card) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SaveCards", ctx, cards)
	ret0, _ := ret[0].(error)
	return ret0
}

// SaveCards indicates an expected call of SaveCards.
func (mr *MockSnapshotStoreMockRecorder) SaveCards(ctx, cards any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SaveCards", reflect.TypeOf((*MockSnapshotStore)(nil).SaveCards), ctx, cards)
}

// SaveSets mocks base method.
func (m *MockSnapshotStore) SaveSets(ctx context.Context, sets []catalog.Set) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SaveSets", ctx, sets)
	ret0, _ := ret[0].(error)
	return ret0
}

// SaveSets indicates an expected call of SaveSets.
func (mr *MockSnapshotStoreMockRecorder) SaveSets(ctx, sets any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SaveSets", reflect.TypeOf((*MockSnapshotStore)(nil).SaveSets), ctx, sets)
}

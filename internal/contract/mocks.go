package contract

import (
	"context"
	"time"

	"github.com/huangsam/sprinthealth/schema"
	"github.com/stretchr/testify/mock"
)

// MockDataSource is a mock implementation of DataSource for testing.
type MockDataSource struct {
	mock.Mock
}

var _ DataSource = &MockDataSource{} // Compile-time check

// Project implements the DataSource interface.
func (m *MockDataSource) Project(ctx context.Context, projectID string) (schema.Project, error) {
	ret := m.Called(ctx, projectID)
	p, _ := ret.Get(0).(schema.Project)
	return p, ret.Error(1)
}

// ActiveCycle implements the DataSource interface.
func (m *MockDataSource) ActiveCycle(ctx context.Context, projectID string, today time.Time) (*schema.Cycle, error) {
	ret := m.Called(ctx, projectID, today)
	c, _ := ret.Get(0).(*schema.Cycle)
	return c, ret.Error(1)
}

// PastCycles implements the DataSource interface.
func (m *MockDataSource) PastCycles(ctx context.Context, projectID string, today time.Time, limit int) ([]schema.Cycle, error) {
	ret := m.Called(ctx, projectID, today, limit)
	cycles, _ := ret.Get(0).([]schema.Cycle)
	return cycles, ret.Error(1)
}

// CycleProgress implements the DataSource interface.
func (m *MockDataSource) CycleProgress(ctx context.Context, cycle schema.Cycle) (schema.ProgressSeries, bool, error) {
	ret := m.Called(ctx, cycle)
	series, _ := ret.Get(0).(schema.ProgressSeries)
	return series, ret.Bool(1), ret.Error(2)
}

// ItemProgress implements the DataSource interface.
func (m *MockDataSource) ItemProgress(ctx context.Context, item schema.BacklogItem) (schema.ProgressSeries, bool, error) {
	ret := m.Called(ctx, item)
	series, _ := ret.Get(0).(schema.ProgressSeries)
	return series, ret.Bool(1), ret.Error(2)
}

// ProductBacklog implements the DataSource interface.
func (m *MockDataSource) ProductBacklog(ctx context.Context, projectID string, limit int) ([]schema.BacklogItem, error) {
	ret := m.Called(ctx, projectID, limit)
	items, _ := ret.Get(0).([]schema.BacklogItem)
	return items, ret.Error(1)
}

// CycleItems implements the DataSource interface.
func (m *MockDataSource) CycleItems(ctx context.Context, cycleIDs []int64) ([]schema.BacklogItem, error) {
	ret := m.Called(ctx, cycleIDs)
	items, _ := ret.Get(0).([]schema.BacklogItem)
	return items, ret.Error(1)
}

// Close implements the DataSource interface.
func (m *MockDataSource) Close() error {
	ret := m.Called()
	return ret.Error(0)
}

// MockReportBuilder is a mock implementation of ReportBuilder for testing.
type MockReportBuilder struct {
	mock.Mock
}

var _ ReportBuilder = &MockReportBuilder{} // Compile-time check

// Build implements the ReportBuilder interface.
func (m *MockReportBuilder) Build(ctx context.Context, projectID string) (schema.StatisticsReport, error) {
	ret := m.Called(ctx, projectID)
	r, _ := ret.Get(0).(schema.StatisticsReport)
	return r, ret.Error(1)
}

// MockReportAccessor is a mock implementation of ReportAccessor for testing.
type MockReportAccessor struct {
	mock.Mock
}

var _ ReportAccessor = &MockReportAccessor{} // Compile-time check

// Get implements the ReportAccessor interface.
func (m *MockReportAccessor) Get(ctx context.Context, projectID string) (schema.StatisticsReport, error) {
	ret := m.Called(ctx, projectID)
	r, _ := ret.Get(0).(schema.StatisticsReport)
	return r, ret.Error(1)
}

// ForceRefresh implements the ReportAccessor interface.
func (m *MockReportAccessor) ForceRefresh(ctx context.Context, projectID string) (schema.StatisticsReport, error) {
	ret := m.Called(ctx, projectID)
	r, _ := ret.Get(0).(schema.StatisticsReport)
	return r, ret.Error(1)
}

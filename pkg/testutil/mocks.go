package testutil

import (
	"context"
	"database/sql/driver"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// MockDB wraps sqlmock with sqlx for repository tests
type MockDB struct {
	DB   *sqlx.DB
	Mock sqlmock.Sqlmock
}

// NewMockDB creates a new mock database
func NewMockDB(t interface {
	Fatalf(format string, args ...interface{})
}) *MockDB {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	return &MockDB{
		DB:   sqlx.NewDb(db, "postgres"),
		Mock: mock,
	}
}

// Close closes the mock database
func (m *MockDB) Close() error {
	return m.DB.Close()
}

// ExpectQuery expects a query matching the given SQL (exact match, escaped)
func (m *MockDB) ExpectQuery(query string) *sqlmock.ExpectedQuery {
	return m.Mock.ExpectQuery(regexp.QuoteMeta(query))
}

// ExpectExec expects an exec matching the given SQL (exact match, escaped)
func (m *MockDB) ExpectExec(query string) *sqlmock.ExpectedExec {
	return m.Mock.ExpectExec(regexp.QuoteMeta(query))
}

// ExpectBegin expects a transaction begin
func (m *MockDB) ExpectBegin() *sqlmock.ExpectedBegin {
	return m.Mock.ExpectBegin()
}

// ExpectCommit expects a transaction commit
func (m *MockDB) ExpectCommit() *sqlmock.ExpectedCommit {
	return m.Mock.ExpectCommit()
}

// ExpectRollback expects a transaction rollback
func (m *MockDB) ExpectRollback() *sqlmock.ExpectedRollback {
	return m.Mock.ExpectRollback()
}

// ExpectationsWereMet checks all expectations were satisfied
func (m *MockDB) ExpectationsWereMet() error {
	return m.Mock.ExpectationsWereMet()
}

// MockRows builds sqlmock rows from column names
func MockRows(columns ...string) *sqlmock.Rows {
	return sqlmock.NewRows(columns)
}

// MockResult builds a driver result for exec expectations
func MockResult(lastInsertID, rowsAffected int64) driver.Result {
	return sqlmock.NewResult(lastInsertID, rowsAffected)
}

// AnyTime matches any time.Time argument
type AnyTime struct{}

// Match satisfies sqlmock.Argument
func (a AnyTime) Match(v driver.Value) bool {
	_, ok := v.(time.Time)
	return ok
}

// AnyUUID matches any valid UUID string argument
type AnyUUID struct{}

// Match satisfies sqlmock.Argument
func (a AnyUUID) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// PublishedEvent records a single publish call
type PublishedEvent struct {
	Type string
	Data interface{}
}

// MockPublisher is an in-memory messaging.EventPublisher for tests
type MockPublisher struct {
	mu              sync.Mutex
	PublishedEvents []PublishedEvent
	PublishErr      error
}

// NewMockPublisher creates a new mock event publisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Publish records the event instead of sending it
func (p *MockPublisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.PublishErr != nil {
		return p.PublishErr
	}

	p.PublishedEvents = append(p.PublishedEvents, PublishedEvent{
		Type: eventType,
		Data: data,
	})
	return nil
}

// Events returns a copy of all recorded events
func (p *MockPublisher) Events() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]PublishedEvent, len(p.PublishedEvents))
	copy(out, p.PublishedEvents)
	return out
}

// EventsOfType returns recorded events matching the given type
func (p *MockPublisher) EventsOfType(eventType string) []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []PublishedEvent
	for _, e := range p.PublishedEvents {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// AssertEventPublished fails the test if no event of the given type was
// recorded
func (p *MockPublisher) AssertEventPublished(t interface {
	Errorf(format string, args ...interface{})
}, eventType string) {
	if len(p.EventsOfType(eventType)) == 0 {
		t.Errorf("expected event %q to be published, recorded: %v", eventType, p.typeList())
	}
}

// AssertNoEventsPublished fails the test if any event was recorded
func (p *MockPublisher) AssertNoEventsPublished(t interface {
	Errorf(format string, args ...interface{})
}) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.PublishedEvents) != 0 {
		t.Errorf("expected no events, recorded: %d", len(p.PublishedEvents))
	}
}

// Reset clears recorded events
func (p *MockPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.PublishedEvents = nil
	p.PublishErr = nil
}

func (p *MockPublisher) typeList() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	types := make([]string, 0, len(p.PublishedEvents))
	for _, e := range p.PublishedEvents {
		types = append(types, e.Type)
	}
	return fmt.Sprintf("%v", types)
}

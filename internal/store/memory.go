package store

import (
	"context"
	"strings"
	"sync"

	"gitea.jw6.us/james/calconv/internal/domain"
)

// Memory is an in-process Callback implementation. It backs the tests and
// lets the conversion service run without a database.
type Memory struct {
	mu sync.RWMutex

	Principal string
	Level     ConformanceLevel

	events     map[string]*domain.Entity // keyed by colPath + "\x00" + uid
	categories map[string]*domain.Category
	contacts   map[string]*domain.Contact
	locations  []*domain.Location
}

func NewMemory(principal string, level ConformanceLevel) *Memory {
	return &Memory{
		Principal:  principal,
		Level:      level,
		events:     make(map[string]*domain.Entity),
		categories: make(map[string]*domain.Category),
		contacts:   make(map[string]*domain.Contact),
	}
}

func eventKey(colPath, uid string) string {
	return colPath + "\x00" + uid
}

// PutEvent stores a master entity (with its overrides) for later lookup.
func (m *Memory) PutEvent(e *domain.Entity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[eventKey(e.ColPath, e.UID)] = e
}

func (m *Memory) GetEvents(ctx context.Context, colPath, uid string) ([]*domain.Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[eventKey(colPath, uid)]
	if !ok {
		return nil, ErrNotFound
	}
	return []*domain.Entity{e}, nil
}

func (m *Memory) FindCategory(ctx context.Context, word, language string) (*domain.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.categories[word+"\x00"+language]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (m *Memory) AddCategory(ctx context.Context, cat *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cat.Href == "" {
		cat.Href = "/categories/" + strings.ToLower(cat.Word)
	}
	m.categories[cat.Word+"\x00"+cat.Language] = cat
	return nil
}

func (m *Memory) FindContact(ctx context.Context, name string) (*domain.Contact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contacts[name]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (m *Memory) AddContact(ctx context.Context, c *domain.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.Href == "" {
		c.Href = "/contacts/" + strings.ToLower(strings.ReplaceAll(c.Name, " ", "-"))
	}
	m.contacts[c.Name] = c
	return nil
}

func (m *Memory) FetchLocationByCombined(ctx context.Context, combined string) (*domain.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.locations {
		if l.Combined == combined {
			return l, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FetchLocationByKey(ctx context.Context, name, value string) (*domain.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if name != "address" {
		return nil, ErrNotFound
	}
	for _, l := range m.locations {
		if l.Address == value {
			return l, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindLocation(ctx context.Context, address string) (*domain.Location, error) {
	return m.FetchLocationByKey(ctx, "address", address)
}

func (m *Memory) AddLocation(ctx context.Context, loc *domain.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if loc.Href == "" {
		loc.Href = "/locations/" + strings.ToLower(strings.ReplaceAll(loc.Address, " ", "-"))
	}
	m.locations = append(m.locations, loc)
	return nil
}

func (m *Memory) CaladdrFor(principal string) string {
	if strings.Contains(principal, ":") {
		return principal
	}
	return "mailto:" + principal
}

func (m *Memory) CurrentPrincipal() string {
	return m.Principal
}

func (m *Memory) Conformance() ConformanceLevel {
	return m.Level
}

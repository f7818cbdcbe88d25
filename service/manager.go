package service

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	ErrDuplicate         = errors.New("service already registered")
	ErrUnknownDependency = errors.New("dependency not registered")
	ErrCycle             = errors.New("circular service dependency")
	ErrNotInitialized    = errors.New("services not initialized")
)

// Manager owns service instances and drives their lifecycle in dependency order
type Manager struct {
	mu       sync.RWMutex
	services map[string]Service
	sorted   []string // topological order, computed on InitAll
	started  []string // services that completed Start, for rollback
}

// NewManager creates an empty manager
func NewManager() *Manager {
	return &Manager{services: make(map[string]Service)}
}

// Register adds a service and invalidates the cached order
func (m *Manager) Register(svc Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := svc.Name()
	if _, exists := m.services[name]; exists {
		return fmt.Errorf("%s: %w", name, ErrDuplicate)
	}
	m.services[name] = svc
	m.sorted = nil
	return nil
}

// Get retrieves a service by name
func (m *Manager) Get(name string) (Service, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	svc, ok := m.services[name]
	return svc, ok
}

// Lookup retrieves a service by name and asserts its concrete type
func Lookup[T any](m *Manager, name string) (T, bool) {
	svc, ok := m.Get(name)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := svc.(T)
	return typed, ok
}

// InitAll resolves dependencies and calls Init on every service
// args maps a service name to its Init arguments; missing names get none
// On failure, already-initialized services are stopped in reverse order
func (m *Manager) InitAll(args map[string][]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sorted == nil {
		order, err := m.topologicalSort()
		if err != nil {
			return err
		}
		m.sorted = order
	}

	var initialized []string
	for _, name := range m.sorted {
		if err := m.services[name].Init(args[name]...); err != nil {
			for i := len(initialized) - 1; i >= 0; i-- {
				m.services[initialized[i]].Stop()
			}
			return fmt.Errorf("service %s init: %w", name, err)
		}
		initialized = append(initialized, name)
	}
	return nil
}

// StartAll starts services in dependency order, rolling back on failure
func (m *Manager) StartAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sorted == nil {
		return ErrNotInitialized
	}

	m.started = nil
	for _, name := range m.sorted {
		if err := m.services[name].Start(); err != nil {
			for i := len(m.started) - 1; i >= 0; i-- {
				m.services[m.started[i]].Stop()
			}
			m.started = nil
			return fmt.Errorf("service %s start: %w", name, err)
		}
		m.started = append(m.started, name)
	}
	return nil
}

// StopAll stops started services in reverse order and returns the joined errors
func (m *Manager) StopAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for i := len(m.started) - 1; i >= 0; i-- {
		name := m.started[i]
		if err := m.services[name].Stop(); err != nil {
			errs = append(errs, fmt.Errorf("service %s stop: %w", name, err))
		}
	}
	m.started = nil
	return errors.Join(errs...)
}

// Order returns the resolved start order, nil before InitAll
func (m *Manager) Order() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.sorted)
}

// topologicalSort computes start order with Kahn's algorithm
// Ties break by name so the order is stable across runs
func (m *Manager) topologicalSort() ([]string, error) {
	inDegree := make(map[string]int, len(m.services))
	dependents := make(map[string][]string)

	names := make([]string, 0, len(m.services))
	for name := range m.services {
		names = append(names, name)
		inDegree[name] = 0
	}
	slices.Sort(names)

	for _, name := range names {
		for _, dep := range m.services[name].Dependencies() {
			if _, exists := m.services[dep]; !exists {
				return nil, fmt.Errorf("service %s needs %s: %w", name, dep, ErrUnknownDependency)
			}
			inDegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var queue []string
	for _, name := range names {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	result := make([]string, 0, len(names))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		result = append(result, name)

		for _, dependent := range dependents[name] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(result) != len(names) {
		return nil, ErrCycle
	}
	return result, nil
}

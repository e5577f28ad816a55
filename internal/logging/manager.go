package logging

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
)

// levels - пара порогов консоль/файл для компонента
type levels struct {
	console LogLevel
	file    LogLevel
}

// Registry хранит логгеры по компонентам хранилища (blockstore, storage,
// redis, ...) и переопределения уровней, заданные до создания логгера.
type Registry struct {
	mu        sync.Mutex
	loggers   map[string]*Logger
	overrides map[string]levels
}

// NewRegistry создает пустой реестр
func NewRegistry() *Registry {
	return &Registry{
		loggers:   make(map[string]*Logger),
		overrides: make(map[string]levels),
	}
}

var (
	globalRegistry *Registry
	registryOnce   sync.Once
)

// GetLoggerManager возвращает глобальный реестр логгеров
func GetLoggerManager() *Registry {
	registryOnce.Do(func() { globalRegistry = NewRegistry() })
	return globalRegistry
}

// GetLogger возвращает логгер компонента, открывая файл при первом обращении
func (r *Registry) GetLogger(component string) (*Logger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.loggers[component]; ok {
		return l, nil
	}

	l, err := NewLogger(component)
	if err != nil {
		return nil, fmt.Errorf("logger %s: %w", component, err)
	}
	r.applyOverride(component, l)
	r.loggers[component] = l
	return l, nil
}

// MustGetLogger не возвращает ошибку: если файл не открылся, компонент
// получает консольный логгер, и он кешируется, чтобы не пытаться снова.
func (r *Registry) MustGetLogger(component string) *Logger {
	l, err := r.GetLogger(component)
	if err == nil {
		return l
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.loggers[component]; ok {
		return cached
	}
	opts := currentOptions()
	l = &Logger{
		component:       component,
		consoleLogger:   log.New(os.Stdout, "", log.LstdFlags),
		minConsoleLevel: opts.ConsoleLevel,
		minFileLevel:    opts.FileLevel,
	}
	r.applyOverride(component, l)
	r.loggers[component] = l
	l.Warn("файловый лог недоступен: %v", err)
	return l
}

// Register подменяет логгер компонента (используется в тестах)
func (r *Registry) Register(component string, l *Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applyOverride(component, l)
	r.loggers[component] = l
}

// SetLogLevel задает пороги компонента. Если логгер еще не создан,
// пороги применятся при его создании.
func (r *Registry) SetLogLevel(component string, consoleLevel, fileLevel LogLevel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.overrides[component] = levels{console: consoleLevel, file: fileLevel}
	if l, ok := r.loggers[component]; ok {
		r.applyOverride(component, l)
	}
}

// applyOverride вызывается под r.mu
func (r *Registry) applyOverride(component string, l *Logger) {
	lv, ok := r.overrides[component]
	if !ok || l == nil {
		return
	}
	l.minConsoleLevel = lv.console
	l.minFileLevel = lv.file
}

// ListComponents возвращает отсортированный список компонентов с логгерами
func (r *Registry) ListComponents() []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.loggers))
	for name := range r.loggers {
		names = append(names, name)
	}
	r.mu.Unlock()

	sort.Strings(names)
	return names
}

// CloseAll отцепляет все логгеры и закрывает их вне блокировки.
// Переопределения уровней сохраняются.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	detached := r.loggers
	r.loggers = make(map[string]*Logger)
	r.mu.Unlock()

	var errs []error
	for name, l := range detached {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close logger %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// GetComponentLogger - удобная функция для получения логгера компонента
func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}

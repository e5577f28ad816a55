// Package metrics экспортирует Prometheus-метрики хранилища чанков.
// Nil *Metrics допустим везде и ничего не записывает.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/annel0/voxel-storage/internal/logging"
)

const namespace = "voxel"

// Metrics объединяет коллекторы и собственный регистр
type Metrics struct {
	registry *prometheus.Registry

	transitions  *prometheus.CounterVec
	optimizeRuns *prometheus.CounterVec
	rleAttempts  *prometheus.CounterVec
	chunks       *prometheus.GaugeVec
	encodedBytes prometheus.Histogram
	storageOps   *prometheus.CounterVec
}

// New создаёт коллекторы и регистрирует их в новом регистре
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_transitions_total",
			Help:      "Переходы между представлениями хранилища чанка.",
		}, []string{"from", "to"}),
		optimizeRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "optimize_runs_total",
			Help:      "Вызовы Optimize по результату.",
		}, []string{"result"}),
		rleAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rle_attempts_total",
			Help:      "Попытки перевода в RLE по результату.",
		}, []string{"result"}),
		chunks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chunks",
			Help:      "Загруженные чанки по представлению.",
		}, []string{"kind"}),
		encodedBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_encoded_bytes",
			Help:      "Размер сериализованного чанка до сжатия.",
			Buckets:   prometheus.ExponentialBuckets(8, 4, 9),
		}),
		storageOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repo_operations_total",
			Help:      "Операции репозитория чанков.",
		}, []string{"backend", "op", "result"}),
	}

	m.registry.MustRegister(m.transitions, m.optimizeRuns, m.rleAttempts, m.chunks, m.encodedBytes, m.storageOps)
	return m
}

// Registry возвращает регистр (для тестов и встраивания)
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Transition учитывает смену представления
func (m *Metrics) Transition(from, to string) {
	if m == nil || from == to {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

// OptimizeRun учитывает вызов Optimize
func (m *Metrics) OptimizeRun(changed bool) {
	if m == nil {
		return
	}
	m.optimizeRuns.WithLabelValues(changedLabel(changed)).Inc()
}

// RLEAttempt учитывает попытку перевода в RLE
func (m *Metrics) RLEAttempt(accepted bool) {
	if m == nil {
		return
	}
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	m.rleAttempts.WithLabelValues(result).Inc()
}

// SetChunkKinds заменяет значения gauge числом чанков по представлениям
func (m *Metrics) SetChunkKinds(counts map[string]int) {
	if m == nil {
		return
	}
	m.chunks.Reset()
	for kind, n := range counts {
		m.chunks.WithLabelValues(kind).Set(float64(n))
	}
}

// EncodedSize учитывает размер сериализованного чанка
func (m *Metrics) EncodedSize(n int) {
	if m == nil {
		return
	}
	m.encodedBytes.Observe(float64(n))
}

// RepoOp учитывает операцию репозитория
func (m *Metrics) RepoOp(backend, op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.storageOps.WithLabelValues(backend, op, result).Inc()
}

func changedLabel(changed bool) string {
	if changed {
		return "changed"
	}
	return "unchanged"
}

// Handler возвращает HTTP-обработчик /metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve запускает HTTP-эндпоинт и блокируется до отмены ctx
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		return err
	}
}

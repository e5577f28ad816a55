package observability

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// OperationID возвращает trace-ID текущего span'а, а без трассировки - новый UUID.
// Используется для связывания строк лога одной операции.
func OperationID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return uuid.NewString()
}

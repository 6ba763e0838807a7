package assembler

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/rcforge/levelcore/internal/assembler"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

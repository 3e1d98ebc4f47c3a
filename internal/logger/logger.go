package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Logger is the process-wide logger. It discards everything until Init runs,
// which keeps package tests quiet.
var Logger = zerolog.Nop()

// Init points the global logger at stdout. Development builds get the
// console writer; everything else emits JSON lines tagged with service.
func Init(service string, isDevelopment bool) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var out io.Writer = os.Stdout
	if isDevelopment {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}
	Logger = zerolog.New(out).With().Timestamp().Str("service", service).Logger()
	log.Logger = Logger
}

// For returns the global logger enriched with whatever request scope ctx
// carries: the chi request id and the active span.
func For(ctx context.Context) *zerolog.Logger {
	c := Logger.With()
	if id := middleware.GetReqID(ctx); id != "" {
		c = c.Str("request_id", id)
	}
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		c = c.Str("trace_id", sc.TraceID().String()).Str("span_id", sc.SpanID().String())
	}
	l := c.Logger()
	return &l
}

func Debug(ctx context.Context) *zerolog.Event { return For(ctx).Debug() }

func Info(ctx context.Context) *zerolog.Event { return For(ctx).Info() }

func Warn(ctx context.Context) *zerolog.Event { return For(ctx).Warn() }

func Error(ctx context.Context) *zerolog.Event { return For(ctx).Error() }

// SetLevel maps LOG_LEVEL onto zerolog's global level. Unknown values mean info.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

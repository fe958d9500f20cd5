package listener

import "time"

type HTTPListenerOpt func(*HTTPListener)

// WithAllowedOrigins restricts CORS to origins. All origins are allowed by default.
func WithAllowedOrigins(origins []string) HTTPListenerOpt {
	return func(l *HTTPListener) {
		l.allowedOrigins = origins
	}
}

func WithShutdownTimeout(d time.Duration) HTTPListenerOpt {
	return func(l *HTTPListener) {
		l.shutdownTimeout = d
	}
}

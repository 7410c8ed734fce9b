// Package logger builds slog loggers with functional options and keeps
// attribute naming consistent across vatkit packages.
//
// New returns a *slog.Logger writing JSON at info level to stdout by default.
// Options change the format, level, output and static attributes, or register
// ContextExtractor callbacks that add request scoped values such as a trace id
// to every record logged with a context.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment("production", "vatkit"),
//	    logger.WithContextExtractors(func(ctx context.Context) (slog.Attr, bool) {
//	        id := traceid.FromContext(ctx)
//	        return logger.TraceID(id), id != ""
//	    }),
//	)
//
//	log.InfoContext(ctx, "vies lookup finished",
//	    logger.CountryCode("NL"),
//	    logger.VATNumber("123456789B01"), // logged as 12********01
//	    logger.Duration(time.Since(start)),
//	)
//
// Error and TraceID return an empty attribute for nil errors and empty ids, so
// they can be passed unconditionally.
package logger

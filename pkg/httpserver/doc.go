// Package httpserver runs an http.Handler with graceful shutdown.
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	srv := httpserver.New(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, handler); err != nil {
//	    log.Error("server stopped", logger.Error(err))
//	}
//
// Run returns nil after a clean shutdown. Errors wrap ErrStart or ErrShutdown.
package httpserver

// Package app assembles the uploadui HTTP server: the page, the session
// WebSocket, the staging endpoint, static assets and the operational
// endpoints, all behind one chi router.
//
//	a, err := app.New(cfg, app.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer a.Shutdown(ctx)
//	go a.RunCleanup(ctx)
//	http.ListenAndServe(cfg.ListenAddr, a.Handler())
package app

// Package shutdown supervises a set of long-running tasks and shuts them all
// down together.
//
// # Overview
//
// A Coordinator runs every task registered with Spawn on its own goroutine and
// hands each one a Token. When SIGINT or SIGTERM arrives, when any holder of a
// Handle calls Shutdown, or when a task returns Fatal, the coordinator resolves
// every outstanding Token and waits for all tasks to return. Tasks are never
// killed; they are expected to notice their Token and return promptly.
//
// # Architecture
//
//	 Spawn / Shutdown          signal listeners (SIGINT, SIGTERM)
//	        │                               │
//	        ▼                               ▼
//	┌──────────────────────────────────────────────────────┐
//	│                event queue (unbounded)               │
//	└──────────────────────────────────────────────────────┘
//	                           │
//	                           ▼
//	┌──────────────────────────────────────────────────────┐
//	│                  Coordinator.Serve                   │
//	│   Running ──► Draining ──► Terminated                │
//	│   starts tasks      resolves Tokens, reaps tasks     │
//	└──────────────────────────────────────────────────────┘
//	                           │
//	             Token ──► task A, task B, ...
//
// Every state change goes through the event queue and is handled by the single
// Serve goroutine, so no task state is shared behind a lock.
//
// # Usage
//
//	coord := shutdown.NewCoordinator(shutdown.DefaultConfig())
//
//	coord.Spawn("http server", func(token shutdown.Token) shutdown.ExitStatus {
//	    go func() {
//	        token.Wait()
//	        srv.Shutdown(context.Background())
//	    }()
//	    if err := srv.ListenAndServe(); err != http.ErrServerClosed {
//	        return shutdown.Fatal(err)
//	    }
//	    return shutdown.Success()
//	})
//
//	taskErr, err := coord.Serve(context.Background())
//	if err != nil {
//	    log.Fatalf("supervisor: %v", err)
//	}
//	if taskErr != nil {
//	    log.Fatalf("task: %v", taskErr)
//	}
//
// Tasks can spawn further tasks and request shutdown through a Handle:
//
//	h := coord.Handle()
//	h.Spawn("scheduler", func(token shutdown.Token) shutdown.ExitStatus {
//	    h.Spawn("job", runJob)
//	    <-token.Done()
//	    return shutdown.Success()
//	})
//
// # Exit statuses
//
//   - Success: the task is done. Once only the signal listeners remain the
//     coordinator drains.
//   - Failure: a soft error. It is logged and kept in the Report; other tasks
//     keep running.
//   - Fatal: every other task is shut down and Serve returns the first fatal
//     error as taskErr.
//
// # Recommendations
//
//   - Always select on Token.Done alongside blocking work
//   - Spawn before Serve; tasks spawned once draining has started never run
//   - Use Report after Done to see how each task ended
package shutdown

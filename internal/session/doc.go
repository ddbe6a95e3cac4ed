// Package session reconciles the two independently-polled identity
// sources into one authoritative AuthState.
//
// The portal's identity is split across two endpoints: the platform
// session principal (who the hosting platform thinks is logged in) and
// the application permission principal (what the backend says that user
// may do). Either can be stale, missing, or wrong independently of the
// other. This package folds both into a single phase-tagged state:
//
//   - Loading: at least one source has not settled with usable data
//   - Unauthenticated: no session, or a session with no real authorization
//   - BackendOffline: the permission backend is missing or unreachable
//   - Ready: both sources agree; roles and permissions are usable
//
// Flow:
//
//	Poller → PlatformObservation / AppObservation → Store (event loop)
//	      ↓
//	  Reconciler → AuthState snapshot → Current() / Subscribe()
//
// The key design principle is that the Reconciler is a pure state machine
// over the two latest observations: it performs no I/O and holds no locks,
// which makes every classification rule testable without network mocking.
// All I/O and all concurrency live in the Store and the poller.
package session

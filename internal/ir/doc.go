// Package ir provides the shared record types for pipInstall.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal. This keeps the
// dependency descriptor, module state and install request types as the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Dependency and ModuleState are values; they are never mutated after
//     construction, only replaced
//   - InstallRequest outcomes move from OutcomePending to a terminal outcome
//     exactly once (see InstallRequest.Resolve)
//   - Classification, Outcome, Kind and Comparator are closed enums so the
//     decision table switches are exhaustive
//   - All JSON tags use snake_case
package ir

// Package engine turns parsed dependencies and their resolved state into
// install outcomes.
//
// A run is strictly sequential:
//
//  1. Parse every manifest entry. Any syntax error aborts the run.
//  2. Query builtins and the frozen listing once.
//  3. Resolve each entry's state before install.
//  4. Decide each entry in manifest order: ignore builtins, skip installed
//     modules with no constraint, install everything else. An install
//     failure marks that request Failed and processing continues.
//  5. If anything was installed, refresh the frozen listing once and
//     resolve the after-state of every succeeded request.
//
// Requests are stamped from a Sequencer in manifest order and each request
// transitions from pending to a terminal outcome exactly once.
package engine

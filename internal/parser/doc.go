// Package parser turns one dependency specification line into an
// ir.Dependency.
//
// Two productions are recognized:
//
//	source control:  git+<uri> | hg+<uri> | svn+<uri> | bzr+<uri>
//	registry:        NAME ( "[" EXTRAS "]" )? ( OP VERSION )?
//
// OP is one of == >= <= > < ~=; ~= is rewritten to >= once the line has
// parsed. VERSION must be a release version: optional epoch, numeric release
// segments, then optional pre-release, post-release and dev tags.
//
// Lines containing a comma are rejected before any tokenizing because they
// express multiple constraints, multiple extras or environment markers, none
// of which are supported. That rejection carries its own error code so the
// CLI can report it distinctly.
package parser

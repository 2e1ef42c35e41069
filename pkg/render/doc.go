// Package render defines the renderer contract shared by every output
// target. A Renderer receives a View, the resolved snapshot of a form
// for one answer state, and turns it into bytes. Views are cheap to
// build; callers rebuild them after every answer mutation instead of
// patching a previous one.
package render

// Package webui serves the bridge's browser UI as an embedded asset.
//
// The page, script and stylesheet are embedded into the binary with go:embed,
// so the bridge has no runtime dependency on external files. The UI drives
// the REST API and listens on the WebSocket for live traffic.
package webui

// Package server provides the HTTP server a browser runner talks to.
//
// # Endpoints
//
//   - GET|POST /__coverage__: saves the coverage payload in the "report"
//     parameter (or a JSON request body) to the report dir and answers
//     with a small HTML acknowledgement
//   - GET /__files__: the resolved file manifest; spec_filter narrows the
//     specs
//   - GET /__project__: resolved directories and the loaded config
//   - GET /__events__: Server-Sent Events for instrumentation, reports and
//     file changes
//   - GET /__spec__/*, /__root__/*: files below the spec dir and the
//     project root
//   - GET /<source>: files below the source dir, the instrumented copy when
//     coverage is enabled, matching the source paths /__files__ lists
//
// Any other path answers 404 with "X-Cascade: pass" so an enclosing server
// can try its next handler.
//
// # Reloading
//
// The server subscribes to files.changed on its event bus. When the changed
// path is the project's config file the project is reloaded; a config that
// fails to load leaves the previous one in place.
//
// # Usage Example
//
//	srv, err := server.New(server.DefaultConfig(), project.Options{ProjectRoot: dir})
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := srv.Start(); err != nil {
//		log.Fatal(err)
//	}
package server

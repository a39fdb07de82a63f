// Package druta compiles synchronous-looking JavaScript into code a
// continuation runtime can suspend and resume.
//
// Programs arrive as syntax tree documents (tagged arrays in JSON or
// YAML). Every call is hoisted into its own instruction whose result is
// read back from the runtime's return slot, so the runtime can pause at
// any call that goes to an asynchronous host primitive and continue later
// with the result.
//
// # Architecture Overview
//
//	druta/               Root package with the Compiler facade and Runtime interface
//	├── ast/             Syntax tree nodes and the tree document decoder
//	├── render/          JavaScript renderer for rewritten trees and payloads
//	├── transform/       Sync-to-continuation rewrite and serialization
//	├── exec/            Executable code wire types and JSON/YAML/CBOR codecs
//	├── config/          druta.toml project configuration
//	├── cache/           SQLite compile cache
//	├── errors/          Structured error types for debugging
//	└── cmd/druta/       Command line compiler, browser and REPL
//
// # Quick Start
//
//	c := druta.New(druta.WithLogger(logger))
//	out, err := c.Compile(doc)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(out.Source)
//
// Hand the result to a runtime:
//
//	err := c.Run(ctx, doc, myRuntime)
//
// # Asynchronous Calls
//
// A call suspends when the transform.Convention matches its callee name
// or the name of a direct argument. The default convention matches the
// "async" prefix and the runtime's $$success, $$fail and $$callBack
// markers.
//
// # Thread Safety
//
// Compiler is safe for concurrent use. Each compile allocates its own
// transform state.
package druta

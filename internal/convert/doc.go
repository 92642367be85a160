// Package convert plans and executes the ffmpeg extraction command.
//
// Planning and execution are split deliberately: Plan is pure so that dry
// runs, metadata, and manifests can describe exactly the command a real run
// would execute, and Run consumes a planned Command without re-deriving any
// argument.
package convert

// Package job executes external tools and multiplexes their output.
//
// Overview
// A Controller owns every invocation end-to-end. Each call to Execute
// allocates a Job, wires a transport of OS pipes between fleet and the
// child, spawns the child and attaches one demultiplexer per output stream.
// The caller is blocked until every stream reported end-of-stream, then the
// child is reaped, the pipes are closed and the Result is returned.
//
// Data flow:
//
//	Execute(argv, opts)
//	    |
//	    +-- newTransport ---- stdin/stdout/stderr pipes (or one merged pipe)
//	    |
//	    +-- start ----------- os/exec.Start, child ends closed in parent
//	    |
//	    +-- demux{stdout} --+ line -> Classify -> policy (return|log|raw)
//	    +-- demux{stderr} --+
//	    |                   | errgroup.Wait: joint end-of-stream
//	    +-- cmd.Wait, transport.Close
//	    |
//	    v
//	Result{JobID, Pid, Lines, ExitCode}
//
// Result modes:
//   - ModeLog (default): every qualifying line is classified by Classify and
//     sent to the Sink. Nothing is accumulated.
//   - ModeReturn: stdout lines, and stderr lines if IncludeStderr is set, are
//     accumulated into Result.Lines. Nothing is logged.
//   - RawRelay (ModeLog only): lines are written verbatim to the controller's
//     stdout or stderr, matching the stream they were read from.
//   - Unless KeepBlankLines is set, lines which are empty after trimming are
//     dropped before any of the above.
//
// Invariants:
//   - A Job finalizes only after every output stream reported end-of-stream.
//   - Lines of one stream keep their order, stdout and stderr are not ordered
//     relative to each other.
//   - A child which keeps a stream open blocks Execute. There is no timeout.
//   - Pipe allocation failure returns ErrPipe and nothing is spawned.
//   - Spawn failure returns ErrSpawn with an empty Result and zero Pid.
//
// Merged pipes:
// On windows the transport uses a single pipe for stdout and stderr and the
// child inherits stdin. There is no stderr stream in this mode, so
// IncludeStderr has no effect and every line is classified as stdout.
package job

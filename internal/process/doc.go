// Package process provides subprocess lifecycle management.
//
// Process wraps os/exec for a single long-running subprocess:
//   - Graceful shutdown with SIGINT and configurable timeout
//   - Force kill with SIGKILL if graceful shutdown times out
//   - Output streaming with pluggable log parsing
//   - Exit notification through Done
//
// Output runs a short-lived probe command and returns what it printed.
//
//	p := process.New("capture", []string{"ffmpeg", "-f", "v4l2", "-i", "/dev/video0", ...},
//	    process.WithLogParser(logging.GetLogger("ffmpeg"), ffmpeg.ParseLogLevel))
//	if err := p.Start(); err != nil {
//	    return err
//	}
//	defer p.Stop()
package process

package ffmpeg

import "strings"

// OptionType is an input behavior flag.
type OptionType string

// Input options.
const (
	OptionGeneratePTS        OptionType = "genpts"
	OptionIgnoreDTS          OptionType = "igndts"
	OptionWallclockTimestamp OptionType = "wallclock_ts"
	OptionThreadQueue1024    OptionType = "thread_queue_1024"
	OptionThreadQueue4096    OptionType = "thread_queue_4096"
	OptionLowLatency         OptionType = "low_latency"
)

// DefaultOptions is what a preview capture uses unless configured.
func DefaultOptions() []OptionType {
	return []OptionType{OptionThreadQueue1024, OptionLowLatency}
}

// ParseOptions maps option names to OptionType, skipping unknown ones.
func ParseOptions(names []string) (opts []OptionType, unknown []string) {
	for _, name := range names {
		switch o := OptionType(strings.TrimSpace(name)); o {
		case OptionGeneratePTS, OptionIgnoreDTS, OptionWallclockTimestamp,
			OptionThreadQueue1024, OptionThreadQueue4096, OptionLowLatency:
			opts = append(opts, o)
		default:
			unknown = append(unknown, name)
		}
	}
	return opts, unknown
}

// inputArgs renders options as arguments that go before -i.
func inputArgs(options []OptionType) []string {
	var args, fflags []string
	for _, option := range options {
		switch option {
		case OptionGeneratePTS:
			fflags = append(fflags, "+genpts")
		case OptionIgnoreDTS:
			fflags = append(fflags, "+igndts")
		case OptionWallclockTimestamp:
			args = append(args, "-use_wallclock_as_timestamps", "1")
		case OptionThreadQueue1024:
			args = append(args, "-thread_queue_size", "1024")
		case OptionThreadQueue4096:
			args = append(args, "-thread_queue_size", "4096")
		case OptionLowLatency:
			fflags = append(fflags, "+nobuffer")
			args = append(args, "-flags", "+low_delay")
		}
	}
	if len(fflags) > 0 {
		args = append(args, "-fflags", strings.Join(fflags, ""))
	}
	return args
}

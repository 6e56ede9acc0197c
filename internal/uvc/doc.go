// Package uvc drives USB video class cameras through V4L2 device nodes.
//
// Format discovery and capture run ffmpeg as a subprocess. The device node
// itself is held open for the lifetime of the camera so a disappearing
// device is noticed by the kernel as an open handle going stale.
package uvc

package documents

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"time"
)

// snapshotQuality mirrors the mobile client's canvas snapshot (quality 0.8).
const snapshotQuality = 80

// CaptureFrame converts a single camera frame into a JPEG upload at the
// frame's native resolution.
func CaptureFrame(frame image.Image) (File, error) {
	if frame == nil || frame.Bounds().Empty() {
		return File{}, &ValidationError{Reason: "empty camera frame"}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: snapshotQuality}); err != nil {
		return File{}, fmt.Errorf("camera snapshot encoding failed: %w", err)
	}

	return File{
		Name: fmt.Sprintf("capture_%d.jpg", time.Now().UnixMilli()),
		MIME: "image/jpeg",
		Size: int64(buf.Len()),
		Data: buf.Bytes(),
	}, nil
}

package display

import (
	"fmt"
	"time"
)

// Status is what the result screen shows for one inference.
type Status struct {
	Title     string
	Anomaly   bool
	Normal    float32 // score in [0,1]
	Abnormal  float32 // score in [0,1]
	Inference time.Duration
}

// DrawSplash paints the startup screen.
func DrawSplash(fb *Framebuffer) {
	fb.Clear()
	fb.DrawString(5, 10, "FAN ANOMALY", true)
	fb.DrawString(10, 25, "DETECTION", true)
	fb.DrawString(15, 40, "LOADING", true)
}

// DrawStatus paints the result screen: title, rule, verdict (boxed when
// anomalous), both scores as whole percentages and the inference time.
func DrawStatus(fb *Framebuffer, s Status) {
	fb.Clear()

	fb.DrawString(10, 5, s.Title, true)
	fb.HLine(0, fb.Width(), 16, true)

	if s.Anomaly {
		fb.DrawString(15, 25, "ANOMALY!", true)
		fb.Rect(10, 22, fb.Width()-11, 38, true)
	} else {
		fb.DrawString(20, 25, "NORMAL", true)
	}

	fb.DrawString(20, 45, ScoreLine(s.Normal, s.Abnormal), true)
	fb.DrawString(5, 55, fmt.Sprintf("%dms", s.Inference.Milliseconds()), true)
}

// ScoreLine formats both scores as "N:<pct> A:<pct>".
func ScoreLine(normal, abnormal float32) string {
	return fmt.Sprintf("N:%.0f A:%.0f", normal*100, abnormal*100)
}

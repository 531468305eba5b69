package watermark

import "time"

// DateLayout renders dates as e.g. 2023年05月17日.
const DateLayout = "2006年01月02日"

// TextResolver picks the watermark text.
type TextResolver struct {
	// Now is the fallback clock. Nil means time.Now.
	Now func() time.Time
}

// Resolve formats the capture date when ok, otherwise today's date.
func (r TextResolver) Resolve(captured time.Time, ok bool) string {
	if ok {
		return captured.Format(DateLayout)
	}
	now := r.Now
	if now == nil {
		now = time.Now
	}
	return now().Format(DateLayout)
}

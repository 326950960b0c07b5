package cli

import (
	"io"
	"os"
	"time"

	"github.com/cheggaaa/pb/v3"

	"github.com/banyancomputer/banyan-client/staging"
)

const uploadBarTemplate = `{{string . "prefix"}}{{counters . }} {{bar . "[" "=" ">" "-" "]"}} {{percent . }} {{string . "suffix"}}`

// uploadBar renders staging progress on out. The bar starts on the first
// progress report so nothing is drawn when staging is skipped.
type uploadBar struct {
	out    io.Writer
	prefix string
	bar    *pb.ProgressBar
}

func newUploadBar(out io.Writer, name string) *uploadBar {
	if out == nil {
		out = os.Stderr
	}
	return &uploadBar{out: out, prefix: name + " "}
}

func (u *uploadBar) Progress() staging.ProgressFunc {
	return func(loaded, total int64, elapsed time.Duration) {
		if u.bar == nil {
			u.bar = pb.New64(total)
			u.bar.Set(pb.Bytes, true)
			u.bar.SetTemplate(pb.ProgressBarTemplate(uploadBarTemplate))
			u.bar.SetWriter(u.out)
			u.bar.Set("prefix", u.prefix)
			u.bar.Start()
		}
		p := staging.NewProgress(loaded, total, elapsed)
		u.bar.Set("suffix", etaSuffix(p))
		u.bar.SetCurrent(loaded)
	}
}

func (u *uploadBar) Finish() {
	if u.bar != nil {
		u.bar.Finish()
	}
}

func etaSuffix(p staging.Progress) string {
	secs, ok := p.SecondsRemaining()
	if !ok {
		return ""
	}
	return (time.Duration(secs) * time.Second).Round(time.Second).String() + " left"
}

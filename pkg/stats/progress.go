package stats

import "vkstats/pkg/logger"

// progressTracker logs an integer percentage strictly when it increases, so
// slow multi-call enumerations report progress without duplicate lines.
type progressTracker struct {
	logger logger.Logger
	label  string
	total  int
	last   int
}

func newProgressTracker(log logger.Logger, label string, total int) *progressTracker {
	return &progressTracker{logger: log, label: label, total: total}
}

func (p *progressTracker) update(done int) {
	if p.total <= 0 {
		return
	}
	pct := done * 100 / p.total
	if pct > p.last {
		p.last = pct
		p.logger.InfoWithFields(p.label, map[string]interface{}{
			"progress_pct": pct,
		})
	}
}

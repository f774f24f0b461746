package controller

import (
	"context"
	"strconv"

	"github.com/aiton-rag/uploadui/pkg/vdom"
)

// RefreshStats fetches the health document and, when it reports success
// with stats, writes the counters into every data-stat node. Failures
// are logged and returned; nothing is shown to the user.
func (c *Controller) RefreshStats(ctx context.Context) error {
	health, err := c.opts.Uploader.Health(ctx)
	if err != nil {
		c.metrics.StatsRefreshed(false)
		c.log.Warn("error updating stats", "error", err)
		return err
	}
	c.metrics.StatsRefreshed(true)
	if !health.Success || health.Stats == nil {
		c.log.Debug("stats unavailable", "success", health.Success)
		return nil
	}

	c.mu.Lock()
	setStat(c.el.Root, StatTotalFiles, health.Stats.TotalProcessedFiles)
	setStat(c.el.Root, StatTotalCategories, health.Stats.KnowledgeBaseCategories)
	c.mu.Unlock()
	c.notify()
	return nil
}

func setStat(root *vdom.VNode, name string, value int64) {
	for _, el := range vdom.QueryByAttr(root, AttrStat, name) {
		el.SetText(strconv.FormatInt(value, 10))
	}
}

// RefreshStatsAsync runs RefreshStats in the background. Close cancels
// it and waits for it to return.
func (c *Controller) RefreshStatsAsync() {
	c.goTracked(c.bg, func(ctx context.Context) { _ = c.RefreshStats(ctx) })
}

// scheduleStatsRefresh runs RefreshStats after StatsDelay on the
// controller's background context. Caller may hold mu.
func (c *Controller) scheduleStatsRefresh() {
	c.afterFunc(c.opts.StatsDelay, func() {
		_ = c.RefreshStats(c.bg)
	})
}

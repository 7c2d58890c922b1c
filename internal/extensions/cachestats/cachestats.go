// Package cachestats adds object cache counters to the statistics page
package cachestats

import (
	"fmt"

	"github.com/go-while/go-pugwiki/internal/cache"
	"github.com/go-while/go-pugwiki/internal/hooks"
	"github.com/go-while/go-pugwiki/internal/models"
)

// Name is the extension name used in the wiki configuration
const Name = "cachestats"

const headerMsg = "statistics-header-cache"

// StatsProvider exposes cache counters
type StatsProvider interface {
	Stats() cache.Stats
}

// Register hooks the extension into the statistics page
func Register(reg *hooks.Registry, provider StatsProvider) {
	reg.OnSpecialStatsAddExtra(Name, func(extra *models.ExtraStats, rc interface{}) (bool, error) {
		st := provider.Stats()
		extra.AddSection(headerMsg,
			models.KeyedItem("statistics-cache-entries", st.Entries),
			models.KeyedItem("statistics-cache-hits", st.Hits),
			models.KeyedItem("statistics-cache-misses", st.Misses),
			models.KeyedItem("statistics-cache-hitrate", fmt.Sprintf("%.1f", st.HitRate)),
		)
		return true, nil
	})
}

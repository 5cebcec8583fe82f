package debug

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// DefaultStatsviewAddr is used when no address is configured.
const DefaultStatsviewAddr = "localhost:18066"

const statsviewPath = "/debug/statsview"

// LaunchStatsview starts the runtime dashboard in its own goroutine and
// prints where to find it.
func LaunchStatsview(addr string, output io.Writer) {
	if addr == "" {
		addr = DefaultStatsviewAddr
	}
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(addr))
		mgr := statsview.New()
		mgr.Start()
	}()

	fmt.Fprintf(output, "stats server available at http://%s%s\n", addr, statsviewPath)
}

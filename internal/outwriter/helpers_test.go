package outwriter

import (
	"github.com/huangsam/sprinthealth/internal/contract"
	"github.com/huangsam/sprinthealth/schema"
)

func testConfig(output schema.OutputMode) *contract.Config {
	return &contract.Config{
		Output:       output,
		Precision:    2,
		Width:        120,
		CacheBackend: schema.MemoryBackend,
	}
}

func sampleReports() []schema.StatisticsReport {
	ppd := 1.25
	return []schema.StatisticsReport{
		schema.NewStatisticsReport("web",
			[]string{"active", "product_backlog_filled", "sprints_sized"},
			[]string{"yield"},
			map[string]float64{"sprints": 2, "velocity": 12, "velocity_stddev": 0.25},
			75, &ppd),
		schema.NewStatisticsReport("legacy", []string{"active"}, nil, map[string]float64{"sprints": 0}, 100, nil),
	}
}

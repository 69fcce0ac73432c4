package engine

import "github.com/prometheus/client_golang/prometheus"

// Metrics exports EngineStats as Prometheus gauges on a private registry,
// so embedding applications decide whether and how to expose /metrics
// rather than the engine reaching for the global default registry.
type Metrics struct {
	registry       *prometheus.Registry
	ruleCount      prometheus.Gauge
	factCount      prometheus.Gauge
	alphaNodeCount prometheus.Gauge
	betaNodeCount  prometheus.Gauge
	terminalCount  prometheus.Gauge
	activeNodes    prometheus.Gauge
	partialCount   prometheus.Gauge
	patternCache   prometheus.Gauge
	estimatedBytes prometheus.Gauge
	pressureLevel  prometheus.Gauge
	poolHits       *prometheus.GaugeVec
	poolMisses     *prometheus.GaugeVec
}

// NewMetrics builds and registers every gauge on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ruleCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rules_engine_rule_count",
			Help: "Number of compiled rules.",
		}),
		factCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rules_engine_fact_count",
			Help: "Number of facts currently in the store.",
		}),
		alphaNodeCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rules_engine_alpha_node_count",
			Help: "Number of alpha nodes in the compiled network.",
		}),
		betaNodeCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rules_engine_beta_node_count",
			Help: "Number of beta nodes in the compiled network.",
		}),
		terminalCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rules_engine_terminal_node_count",
			Help: "Number of terminal nodes in the compiled network.",
		}),
		activeNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rules_engine_active_node_count",
			Help: "Number of nodes the activation tracker has seen fire at least once.",
		}),
		partialCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rules_engine_partial_match_count",
			Help: "Live partial matches across every rule's beta memory.",
		}),
		patternCache: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rules_engine_pattern_cache_size",
			Help: "Compiled-pattern cache entries currently cached.",
		}),
		estimatedBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rules_engine_estimated_bytes",
			Help: "Estimated memory footprint of facts and network nodes, in bytes.",
		}),
		pressureLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rules_engine_pressure_level",
			Help: "Memory-pressure level: 0=normal 1=moderate 2=high 3=critical.",
		}),
		poolHits: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rules_engine_pool_hits",
			Help: "Object-pool Get calls served from the pool, by pool name.",
		}, []string{"pool"}),
		poolMisses: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rules_engine_pool_misses",
			Help: "Object-pool Get calls that allocated fresh, by pool name.",
		}, []string{"pool"}),
	}

	reg.MustRegister(
		m.ruleCount, m.factCount, m.alphaNodeCount, m.betaNodeCount, m.terminalCount,
		m.activeNodes, m.partialCount, m.patternCache, m.estimatedBytes, m.pressureLevel,
		m.poolHits, m.poolMisses,
	)

	return m
}

// Registry returns the private registry these gauges are registered on, for
// mounting behind promhttp.HandlerFor in whatever way the embedding service
// exposes its own /metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) update(s EngineStats) {
	m.ruleCount.Set(float64(s.RuleCount))
	m.factCount.Set(float64(s.FactCount))
	m.alphaNodeCount.Set(float64(s.AlphaNodeCount))
	m.betaNodeCount.Set(float64(s.BetaNodeCount))
	m.terminalCount.Set(float64(s.TerminalNodeCount))
	m.activeNodes.Set(float64(s.ActiveNodeCount))
	m.partialCount.Set(float64(s.PartialMatchCount))
	m.patternCache.Set(float64(s.PatternCacheSize))
	m.estimatedBytes.Set(float64(s.EstimatedBytes))
	m.pressureLevel.Set(float64(s.Pressure))

	for name, stat := range s.Pools {
		m.poolHits.WithLabelValues(name).Set(float64(stat.Hits))
		m.poolMisses.WithLabelValues(name).Set(float64(stat.Misses))
	}
}

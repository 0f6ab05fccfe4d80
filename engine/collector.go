package engine

import (
	"context"

	"github.com/intelmesh/intelmesh/agent"
	"github.com/intelmesh/intelmesh/core"
)

// Collector gathers raw records about an investigation target from one
// source. Implementations must fold every failure into the returned Record;
// a failed collection never aborts the run.
type Collector interface {
	// Name identifies the collector; it doubles as the record source tag and
	// the collector's address on the message bus.
	Name() string

	// Collect gathers records for the target.
	Collect(ctx context.Context, target map[string]any) core.Record
}

// executorCollector wraps a unit of work in the standard agent lifecycle so
// collections get validation, timeout, retry and panic containment for free.
type executorCollector struct {
	name string
	exec *agent.Executor
}

// NewCollector builds a Collector around the given unit of work. The unit's
// output map becomes the record content: a "results" key holding a list of
// maps is used directly, anything else is wrapped as a single result.
func NewCollector(name string, unit agent.UnitFunc, optFns ...func(o *agent.Options)) Collector {
	named := func(o *agent.Options) { o.Name = name }
	exec := agent.New(unit, append([]func(o *agent.Options){named}, optFns...)...)
	return &executorCollector{name: name, exec: exec}
}

func (c *executorCollector) Name() string { return c.name }

func (c *executorCollector) Collect(ctx context.Context, target map[string]any) core.Record {
	result := c.exec.Execute(ctx, target)
	if !result.Success {
		return core.Record{
			Source:            c.name,
			CollectionSuccess: false,
			Error:             result.ErrorMessage,
		}
	}
	return core.Record{
		Source:            c.name,
		Results:           resultRecords(result.Data),
		CollectionSuccess: true,
	}
}

// Status exposes the underlying executor snapshot.
func (c *executorCollector) Status() agent.Status { return c.exec.Status() }

// resultRecords extracts the record list from a unit output map.
func resultRecords(data map[string]any) []map[string]any {
	switch v := data["results"].(type) {
	case []map[string]any:
		return v
	case []any:
		var out []map[string]any
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		if out != nil {
			return out
		}
	}
	return []map[string]any{data}
}

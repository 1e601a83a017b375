package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ripdaemon/ripd/internal/rerr"
)

var requiredParams = []string{
	"router-id",
	"input-ports",
	"outputs",
	"timeout-default",
	"timeout-delta",
	"route-timeout",
	"garbage-timeout",
	"trigger-timeout",
}

const (
	minRouterID = 1
	maxRouterID = 65535
	minPort     = 1024
	maxPort     = 64000
	maxMetric   = 16
)

// Load reads and validates the configuration file at path, returning a
// typed Config or the first ConfigError encountered.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &rerr.ConfigError{Kind: "missing", Message: err.Error()}
	}
	defer f.Close()

	values := make(map[string][]string)
	lineOf := make(map[string]int)

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		parts := strings.Split(trimmed, " ")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, &rerr.ConfigError{Kind: "syntax", Line: lineNo, Message: "expected \"name value,value,...\""}
		}
		name, rest := parts[0], parts[1]

		if _, dup := values[name]; dup {
			return nil, &rerr.ConfigError{Kind: "syntax", Line: lineNo, Param: name, Message: "duplicate parameter"}
		}
		values[name] = strings.Split(rest, ",")
		lineOf[name] = lineNo
	}
	if err := scanner.Err(); err != nil {
		return nil, &rerr.ConfigError{Kind: "syntax", Message: err.Error(), Err: err}
	}

	var missing []string
	for _, p := range requiredParams {
		if _, ok := values[p]; !ok {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return nil, &rerr.ConfigError{Kind: "missing", Param: strings.Join(missing, ", "), Message: "required parameter not set"}
	}

	return build(values, lineOf)
}

func build(values map[string][]string, lineOf map[string]int) (*Config, error) {
	cfg := &Config{}

	routerID, err := parseRouterID(values["router-id"], lineOf["router-id"])
	if err != nil {
		return nil, err
	}
	cfg.RouterID = routerID

	inputPorts, err := parseInputPorts(values["input-ports"], lineOf["input-ports"])
	if err != nil {
		return nil, err
	}
	cfg.InputPorts = inputPorts

	neighbors, err := parseOutputs(values["outputs"], lineOf["outputs"], inputPorts)
	if err != nil {
		return nil, err
	}
	cfg.Neighbors = neighbors

	periodicBase, err := parsePositiveFloat(values["timeout-default"], lineOf["timeout-default"], "timeout-default")
	if err != nil {
		return nil, err
	}
	periodicJitter, err := parseNonNegativeFloat(values["timeout-delta"], lineOf["timeout-delta"], "timeout-delta")
	if err != nil {
		return nil, err
	}
	if periodicJitter > periodicBase {
		return nil, &rerr.ConfigError{Kind: "range", Line: lineOf["timeout-delta"], Param: "timeout-delta", Message: "must be <= timeout-default"}
	}

	routeTimeout, err := parsePositiveFloat(values["route-timeout"], lineOf["route-timeout"], "route-timeout")
	if err != nil {
		return nil, err
	}
	garbageTimeout, err := parsePositiveFloat(values["garbage-timeout"], lineOf["garbage-timeout"], "garbage-timeout")
	if err != nil {
		return nil, err
	}
	if garbageTimeout <= routeTimeout {
		return nil, &rerr.ConfigError{Kind: "range", Line: lineOf["garbage-timeout"], Param: "garbage-timeout", Message: "must be > route-timeout"}
	}

	triggerMin, triggerMax, err := parseTriggerTimeout(values["trigger-timeout"], lineOf["trigger-timeout"])
	if err != nil {
		return nil, err
	}

	cfg.Timers = Timers{
		PeriodicBase:   durationFromSeconds(periodicBase),
		PeriodicJitter: durationFromSeconds(periodicJitter),
		RouteTimeout:   durationFromSeconds(routeTimeout),
		GarbageTimeout: durationFromSeconds(garbageTimeout),
		TriggerMin:     durationFromSeconds(triggerMin),
		TriggerMax:     durationFromSeconds(triggerMax),
	}

	if raw, ok := values["metrics-port"]; ok {
		port, err := parseMetricsPort(raw, lineOf["metrics-port"], inputPorts, neighbors)
		if err != nil {
			return nil, err
		}
		cfg.MetricsPort = &port
	}

	return cfg, nil
}

func durationFromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func parseRouterID(raw []string, line int) (RouterID, error) {
	if len(raw) != 1 {
		return 0, &rerr.ConfigError{Kind: "syntax", Line: line, Param: "router-id", Message: "expects exactly one value"}
	}
	v, err := strconv.ParseInt(raw[0], 10, 32)
	if err != nil {
		return 0, &rerr.ConfigError{Kind: "syntax", Line: line, Param: "router-id", Message: "not an integer", Err: err}
	}
	if v < minRouterID || v > maxRouterID {
		return 0, &rerr.ConfigError{Kind: "range", Line: line, Param: "router-id", Message: "must be in [1, 65535]"}
	}
	return RouterID(v), nil
}

func parsePort(s string) (Port, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	if v < minPort || v > maxPort {
		return 0, &rerr.ConfigError{Kind: "range", Message: "port must be in [1024, 64000]"}
	}
	return Port(v), nil
}

func parseInputPorts(raw []string, line int) ([]Port, error) {
	if len(raw) < 1 {
		return nil, &rerr.ConfigError{Kind: "syntax", Line: line, Param: "input-ports", Message: "requires at least one port"}
	}
	seen := make(map[Port]bool, len(raw))
	ports := make([]Port, 0, len(raw))
	for _, s := range raw {
		p, err := parsePort(s)
		if err != nil {
			return nil, wrapParamErr(err, line, "input-ports")
		}
		if seen[p] {
			return nil, &rerr.ConfigError{Kind: "syntax", Line: line, Param: "input-ports", Message: "duplicate port"}
		}
		seen[p] = true
		ports = append(ports, p)
	}
	return ports, nil
}

func parseOutputs(raw []string, line int, inputPorts []Port) ([]Neighbor, error) {
	if len(raw) < 1 {
		return nil, &rerr.ConfigError{Kind: "syntax", Line: line, Param: "outputs", Message: "requires at least one entry"}
	}

	inputSet := make(map[Port]bool, len(inputPorts))
	for _, p := range inputPorts {
		inputSet[p] = true
	}

	neighbors := make([]Neighbor, 0, len(raw))
	portsUsed := make(map[Port]bool, len(raw))
	for _, entry := range raw {
		fields := strings.Split(entry, "-")
		if len(fields) != 3 {
			return nil, &rerr.ConfigError{Kind: "syntax", Line: line, Param: "outputs", Message: "expects port-metric-id"}
		}

		port, err := parsePort(fields[0])
		if err != nil {
			return nil, wrapParamErr(err, line, "outputs")
		}
		if inputSet[port] || portsUsed[port] {
			return nil, &rerr.ConfigError{Kind: "syntax", Line: line, Param: "outputs", Message: "port collides with input-ports or another output"}
		}
		portsUsed[port] = true

		metric, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil || metric < 0 || metric > maxMetric {
			return nil, &rerr.ConfigError{Kind: "range", Line: line, Param: "outputs", Message: "metric must be in [0, 16]"}
		}

		id, err := strconv.ParseInt(fields[2], 10, 32)
		if err != nil || id < minRouterID || id > maxRouterID {
			return nil, &rerr.ConfigError{Kind: "range", Line: line, Param: "outputs", Message: "id must be in [1, 65535]"}
		}

		neighbors = append(neighbors, Neighbor{ID: RouterID(id), DestPort: port, Cost: int(metric)})
	}

	return neighbors, nil
}

func parsePositiveFloat(raw []string, line int, param string) (float64, error) {
	v, err := parseSingleFloat(raw, line, param)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, &rerr.ConfigError{Kind: "range", Line: line, Param: param, Message: "must be positive"}
	}
	return v, nil
}

func parseNonNegativeFloat(raw []string, line int, param string) (float64, error) {
	v, err := parseSingleFloat(raw, line, param)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, &rerr.ConfigError{Kind: "range", Line: line, Param: param, Message: "must be non-negative"}
	}
	return v, nil
}

func parseSingleFloat(raw []string, line int, param string) (float64, error) {
	if len(raw) != 1 {
		return 0, &rerr.ConfigError{Kind: "syntax", Line: line, Param: param, Message: "expects exactly one value"}
	}
	v, err := strconv.ParseFloat(raw[0], 64)
	if err != nil {
		return 0, &rerr.ConfigError{Kind: "syntax", Line: line, Param: param, Message: "not a number", Err: err}
	}
	return v, nil
}

func parseTriggerTimeout(raw []string, line int) (min, max float64, err error) {
	if len(raw) != 2 {
		return 0, 0, &rerr.ConfigError{Kind: "syntax", Line: line, Param: "trigger-timeout", Message: "expects exactly two values"}
	}
	a, err := strconv.ParseFloat(raw[0], 64)
	if err != nil {
		return 0, 0, &rerr.ConfigError{Kind: "syntax", Line: line, Param: "trigger-timeout", Message: "not a number", Err: err}
	}
	b, err := strconv.ParseFloat(raw[1], 64)
	if err != nil {
		return 0, 0, &rerr.ConfigError{Kind: "syntax", Line: line, Param: "trigger-timeout", Message: "not a number", Err: err}
	}
	if a >= b {
		return 0, 0, &rerr.ConfigError{Kind: "range", Line: line, Param: "trigger-timeout", Message: "first value must be < second"}
	}
	return a, b, nil
}

func parseMetricsPort(raw []string, line int, inputPorts []Port, neighbors []Neighbor) (Port, error) {
	if len(raw) != 1 {
		return 0, &rerr.ConfigError{Kind: "syntax", Line: line, Param: "metrics-port", Message: "expects exactly one value"}
	}
	port, err := parsePort(raw[0])
	if err != nil {
		return 0, wrapParamErr(err, line, "metrics-port")
	}
	for _, p := range inputPorts {
		if p == port {
			return 0, &rerr.ConfigError{Kind: "syntax", Line: line, Param: "metrics-port", Message: "collides with input-ports"}
		}
	}
	for _, n := range neighbors {
		if n.DestPort == port {
			return 0, &rerr.ConfigError{Kind: "syntax", Line: line, Param: "metrics-port", Message: "collides with outputs"}
		}
	}
	return port, nil
}

func wrapParamErr(err error, line int, param string) error {
	if ce, ok := err.(*rerr.ConfigError); ok {
		ce.Line = line
		ce.Param = param
		return ce
	}
	return &rerr.ConfigError{Kind: "syntax", Line: line, Param: param, Message: err.Error(), Err: err}
}

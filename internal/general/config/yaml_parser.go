package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// parseYAML parses the specific two-level mapping used by config.yaml
func parseYAML(r io.Reader, cfg *Config) error {
	type section int
	const (
		none section = iota
		be
		rm
		db
		rd
		mp
		dr
		rt
	)

	scanner := bufio.NewScanner(r)
	var cur section

	lineNo := 0
	seenTop := map[section]bool{}

	enter := func(s section, name string) error {
		if seenTop[s] {
			return fmt.Errorf("line %d: duplicate %q section", lineNo, name)
		}
		seenTop[s] = true
		cur = s
		return nil
	}

	intVal := func(key, val string) (int, error) {
		n, err := strconv.Atoi(resolveScalar(val))
		if err != nil {
			return 0, fmt.Errorf("line %d: %s must be int: %v", lineNo, key, err)
		}
		return n, nil
	}

	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()

		// strip comments
		if i := strings.IndexByte(raw, '#'); i >= 0 {
			raw = raw[:i]
		}

		line := strings.TrimRight(raw, " \t\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		// top-level section? (no leading spaces)
		if line[0] != ' ' && line[0] != '\t' {
			name := strings.TrimSuffix(strings.TrimSpace(line), ":")
			var err error
			switch name {
			case "backend":
				err = enter(be, name)
			case "rabbitmq":
				err = enter(rm, name)
			case "database":
				err = enter(db, name)
			case "redis":
				err = enter(rd, name)
			case "maps":
				err = enter(mp, name)
			case "driver":
				err = enter(dr, name)
			case "runtime":
				err = enter(rt, name)
			default:
				err = fmt.Errorf("line %d: unknown top-level key %q", lineNo, name)
			}
			if err != nil {
				return err
			}
			continue
		}

		// expect indented "key: value"
		if cur == none {
			return fmt.Errorf("line %d: key without a section", lineNo)
		}
		trim := strings.TrimSpace(line)
		colon := strings.IndexByte(trim, ':')
		if colon <= 0 {
			return fmt.Errorf("line %d: expected 'key: value'", lineNo)
		}
		key := strings.TrimSpace(trim[:colon])
		val := strings.TrimSpace(trim[colon+1:])

		var err error
		switch cur {
		case be:
			switch key {
			case "base_url":
				cfg.Backend.BaseURL = resolveScalar(val)
			case "ws_url":
				cfg.Backend.WSURL = resolveScalar(val)
			default:
				err = fmt.Errorf("line %d: unknown key in backend: %q", lineNo, key)
			}
		case rm:
			switch key {
			case "host":
				cfg.RabbitMQ.Host = resolveScalar(val)
			case "port":
				cfg.RabbitMQ.Port, err = intVal("rabbitmq.port", val)
			case "user":
				cfg.RabbitMQ.User = resolveScalar(val)
			case "password":
				cfg.RabbitMQ.Password = resolveScalar(val)
			default:
				err = fmt.Errorf("line %d: unknown key in rabbitmq: %q", lineNo, key)
			}
		case db:
			switch key {
			case "host":
				cfg.Database.Host = resolveScalar(val)
			case "port":
				cfg.Database.Port, err = intVal("database.port", val)
			case "user":
				cfg.Database.User = resolveScalar(val)
			case "password":
				cfg.Database.Password = resolveScalar(val)
			case "database":
				cfg.Database.Name = resolveScalar(val)
			default:
				err = fmt.Errorf("line %d: unknown key in database: %q", lineNo, key)
			}
		case rd:
			switch key {
			case "addr":
				cfg.Redis.Addr = resolveScalar(val)
			default:
				err = fmt.Errorf("line %d: unknown key in redis: %q", lineNo, key)
			}
		case mp:
			switch key {
			case "api_key":
				cfg.Maps.APIKey = resolveScalar(val)
			case "language":
				cfg.Maps.Language = resolveScalar(val)
			case "region":
				cfg.Maps.Region = resolveScalar(val)
			default:
				err = fmt.Errorf("line %d: unknown key in maps: %q", lineNo, key)
			}
		case dr:
			switch key {
			case "id":
				cfg.Driver.ID = resolveScalar(val)
			case "secret_key":
				cfg.Driver.SecretKey = resolveScalar(val)
			default:
				err = fmt.Errorf("line %d: unknown key in driver: %q", lineNo, key)
			}
		case rt:
			switch key {
			case "location_interval_ms":
				cfg.Runtime.LocationIntervalMS, err = intVal("runtime.location_interval_ms", val)
			case "route_debounce_ms":
				cfg.Runtime.RouteDebounceMS, err = intVal("runtime.route_debounce_ms", val)
			case "search_debounce_ms":
				cfg.Runtime.SearchDebounceMS, err = intVal("runtime.search_debounce_ms", val)
			case "nearby_interval_ms":
				cfg.Runtime.NearbyIntervalMS, err = intVal("runtime.nearby_interval_ms", val)
			case "demo":
				cfg.Runtime.Demo = resolveScalar(val) == "true"
			default:
				err = fmt.Errorf("line %d: unknown key in runtime: %q", lineNo, key)
			}
		}
		if err != nil {
			return err
		}
	}

	return scanner.Err()
}

// resolveScalar trims whitespace and removes surrounding quotes from YAML-like
// scalars so values like maps.api_key are not stored with extra quotes.
func resolveScalar(s string) string {
	s = strings.TrimSpace(s)

	n := len(s)
	if n >= 2 {
		if (s[0] == '"' && s[n-1] == '"') || (s[0] == '\'' && s[n-1] == '\'') {
			if unq, err := strconv.Unquote(s); err == nil {
				return unq
			}
			return s[1 : n-1]
		}
	}

	return s
}

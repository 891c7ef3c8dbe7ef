package blobc

import "fmt"

// Config is a typed key/value map carried over from the teacher's
// grammar-loading flags, repurposed here to hold one generator's
// resolved `generator <name>: opt_list` options (spec.md §4.2's
// genconfig production) so a codegen.Generator can query them without
// re-walking the raw Option slice.
type Config map[string]*cfgVal

// NewConfigFromOptions flattens a RawGeneratorConfig's Opts into a
// Config: a bare `name` option becomes a bool true; a `name(v, ...)`
// option stores its first positional value under `name`, and each
// keyed `name(k=v)` value is stored under `name.k`, typed by its
// OptValueKind.
func NewConfigFromOptions(opts []Option) Config {
	c := make(Config)
	for _, o := range opts {
		if len(o.Positional) == 0 && len(o.Keyed) == 0 {
			c.SetBool(o.Name, true)
			continue
		}
		if len(o.Positional) > 0 {
			c.setOptValue(o.Name, o.Positional[0])
		}
		for k, v := range o.Keyed {
			c.setOptValue(o.Name+"."+k, v)
		}
	}
	return c
}

func (c Config) setOptValue(key string, v OptValue) {
	switch v.Kind {
	case OptInt:
		c.SetInt(key, int(v.Int))
	default:
		c.SetString(key, v.Str)
	}
}

type cfgValType int

const (
	cfgValUndefined cfgValType = iota
	cfgValBool
	cfgValInt
	cfgValString
)

type cfgVal struct {
	typ      cfgValType
	asBool   bool
	asInt    int
	asString string
}

func (c Config) SetBool(key string, v bool) { c[key] = &cfgVal{typ: cfgValBool, asBool: v} }
func (c Config) SetInt(key string, v int)   { c[key] = &cfgVal{typ: cfgValInt, asInt: v} }
func (c Config) SetString(key string, v string) {
	c[key] = &cfgVal{typ: cfgValString, asString: v}
}

func (c Config) GetBool(key string) (bool, error) {
	v, ok := c[key]
	if !ok || v.typ != cfgValBool {
		return false, fmt.Errorf("bool option %q not set", key)
	}
	return v.asBool, nil
}

func (c Config) GetInt(key string) (int, error) {
	v, ok := c[key]
	if !ok || v.typ != cfgValInt {
		return 0, fmt.Errorf("int option %q not set", key)
	}
	return v.asInt, nil
}

func (c Config) GetString(key string) (string, error) {
	v, ok := c[key]
	if !ok || v.typ != cfgValString {
		return "", fmt.Errorf("string option %q not set", key)
	}
	return v.asString, nil
}

func (c Config) Has(key string) bool {
	_, ok := c[key]
	return ok
}
